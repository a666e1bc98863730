// Copyright Contributors to the KubeOpenCode project

package render

import (
	"strings"
	"testing"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/config"
)

func TestDocsRunPromptMentionsRepository(t *testing.T) {
	spec := agentsv1.DocsRunSpec{
		RepositoryURL:    "https://github.com/5dlabs/docs",
		WorkingDirectory: "tasks/42",
		SourceBranch:     "main",
		IncludeCodebase:  true,
	}
	bundle, err := DocsRun(spec, config.Default())
	if err != nil {
		t.Fatalf("DocsRun: %v", err)
	}
	if !strings.Contains(bundle.Prompt, spec.RepositoryURL) {
		t.Errorf("prompt missing repository URL: %q", bundle.Prompt)
	}
	if !strings.Contains(bundle.Prompt, "mounted alongside") {
		t.Errorf("prompt missing includeCodebase note: %q", bundle.Prompt)
	}
}

func TestCodeRunPromptModificationReplace(t *testing.T) {
	spec := agentsv1.CodeRunSpec{
		TaskID:              7,
		Service:             "orchestrator-core",
		RepositoryURL:       "https://github.com/5dlabs/platform",
		DocsRepositoryURL:   "https://github.com/5dlabs/docs",
		Model:               "claude-sonnet-4-5",
		GitHubUser:          "alice",
		ContextVersion:      2,
		PromptModification:  "focus only on the retry path",
	}
	bundle, err := CodeRun(spec, "replace", config.Default())
	if err != nil {
		t.Fatalf("CodeRun: %v", err)
	}
	if !strings.Contains(bundle.Prompt, "Replace the base instructions") {
		t.Errorf("expected replace-mode wording, got %q", bundle.Prompt)
	}
	if !strings.Contains(bundle.Prompt, "focus only on the retry path") {
		t.Errorf("prompt missing promptModification text: %q", bundle.Prompt)
	}
}

func TestDocsRunEntrypointMountsBundleAndGitRoot(t *testing.T) {
	spec := agentsv1.DocsRunSpec{
		RepositoryURL:    "https://github.com/5dlabs/docs.git",
		WorkingDirectory: "tasks/42",
		SourceBranch:     "main",
	}
	bundle, err := DocsRun(spec, config.Default())
	if err != nil {
		t.Fatalf("DocsRun: %v", err)
	}
	if !strings.Contains(bundle.Entrypoint, BundleDir) {
		t.Errorf("entrypoint missing bundle dir %q: %s", BundleDir, bundle.Entrypoint)
	}
	if !strings.Contains(bundle.Entrypoint, GitRoot+"/docs") {
		t.Errorf("entrypoint missing primary repo workdir: %s", bundle.Entrypoint)
	}
}

func TestCodeRunEntrypointContinueSession(t *testing.T) {
	spec := agentsv1.CodeRunSpec{
		RepositoryURL:   "https://github.com/5dlabs/platform",
		ContinueSession: true,
	}
	bundle, err := CodeRun(spec, "append", config.Default())
	if err != nil {
		t.Fatalf("CodeRun: %v", err)
	}
	if !strings.Contains(bundle.Entrypoint, "--continue-session") {
		t.Errorf("expected continue-session flag in entrypoint, got: %s", bundle.Entrypoint)
	}
}

func TestToolPolicyMergesRunAndDefault(t *testing.T) {
	cfg := config.Default()
	bundle, err := CodeRun(agentsv1.CodeRunSpec{
		Tools: &agentsv1.ToolsSpec{Local: []string{"bash"}, Remote: []string{"browser"}},
	}, "append", cfg)
	if err != nil {
		t.Fatalf("CodeRun: %v", err)
	}
	if !strings.Contains(bundle.ToolPolicy, `"bash":"allow"`) {
		t.Errorf("expected bash allowed in policy: %s", bundle.ToolPolicy)
	}
	if !strings.Contains(bundle.ToolPolicy, `"browser":"allow"`) {
		t.Errorf("expected browser allowed in policy: %s", bundle.ToolPolicy)
	}
}
