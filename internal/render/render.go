// Copyright Contributors to the KubeOpenCode project

// Package render turns a DocsRun or CodeRun spec plus the operator's
// configuration into the artifact bundle mounted into a run's Job: the
// agent prompt, a memory file, and the tool-permission policy consumed via
// the OPENCODE_PERMISSION environment variable convention. Render is a pure
// function of its inputs so the resource builder can hash its output for
// change detection without re-invoking the cluster.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"sort"
	"strings"
	"text/template"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/config"
	"github.com/5dlabs/platform-sub001/internal/errs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Mount paths shared with internal/builder so the rendered entrypoint.sh
// references the same locations the Job actually mounts; builder imports
// these rather than redeclaring them to keep the two in lockstep.
const (
	BundleDir = "/workspace/.bundle"
	GitRoot   = "/workspace/repo"
)

// Bundle is the set of files the resource builder writes into a run's
// ConfigMap. Keys are ConfigMap data keys; values are file contents.
type Bundle struct {
	Prompt     string
	Memory     string
	ToolPolicy string
	Entrypoint string
	DataKeys   map[string]string
}

// ToConfigMapData flattens Bundle into the ConfigMap key/value shape.
func (b Bundle) ToConfigMapData() map[string]string {
	data := map[string]string{
		"prompt.md":        b.Prompt,
		"memory.md":        b.Memory,
		"tool-policy.json": b.ToolPolicy,
		"entrypoint.sh":    b.Entrypoint,
	}
	for k, v := range b.DataKeys {
		data[k] = v
	}
	return data
}

// EntrypointContext is the typed context text/template renders entrypoint.sh
// against. BundleDir and GitRoot are the mount paths the resource builder
// wires into every Job; PrimaryRepoName/WorkingDirectory/ContinueSession/
// OpenPullRequest vary per run kind and spec.
type EntrypointContext struct {
	BundleDir       string
	GitRoot         string
	PrimaryRepoName string
	WorkingDirectory string
	ContinueSession bool
	OpenPullRequest bool
}

// toolPolicy is the JSON document written to OPENCODE_PERMISSION-compatible
// tool-policy.json: a flat map from tool name (or "*") to an action.
type toolPolicy map[string]string

func mergeToolPolicy(cfg config.AgentTools, override *config.AgentTools, runLocal, runRemote []string) string {
	effective := cfg
	if override != nil {
		effective = *override
	}

	policy := toolPolicy{}
	for _, name := range effective.Allow {
		policy[name] = "allow"
	}
	for _, name := range effective.Deny {
		policy[name] = "deny"
	}
	for _, name := range runLocal {
		policy[name] = "allow"
	}
	for _, name := range runRemote {
		policy[name] = "allow"
	}
	if len(policy) == 0 {
		policy["*"] = "allow"
	}

	// Deterministic output: json.Marshal on a map already sorts keys, but
	// make the intent explicit since the resource builder hashes this text.
	keys := make([]string, 0, len(policy))
	for k := range policy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(policy))
	for _, k := range keys {
		ordered[k] = policy[k]
	}
	out, _ := json.Marshal(ordered)
	return string(out)
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errs.NewTemplateError(name, err)
	}
	return buf.String(), nil
}

// DocsRun renders the artifact bundle for a DocsRunSpec.
func DocsRun(spec agentsv1.DocsRunSpec, cfg config.Config) (Bundle, error) {
	prompt, err := execute("docsrun_prompt.md.tmpl", spec)
	if err != nil {
		return Bundle{}, err
	}
	memory, err := execute("memory.md.tmpl", struct {
		ContextVersion  uint32
		OverwriteMemory bool
	}{ContextVersion: 1, OverwriteMemory: false})
	if err != nil {
		return Bundle{}, err
	}
	entrypoint, err := execute("entrypoint.sh.tmpl", EntrypointContext{
		BundleDir:       BundleDir,
		GitRoot:         GitRoot,
		PrimaryRepoName: repoNameFromURL(spec.RepositoryURL),
		WorkingDirectory: spec.WorkingDirectory,
		OpenPullRequest: true,
	})
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Prompt:     prompt,
		Memory:     memory,
		ToolPolicy: mergeToolPolicy(cfg.Agent.DefaultTools, cfg.Agent.ToolsOverride, nil, nil),
		Entrypoint: entrypoint,
	}, nil
}

// CodeRun renders the artifact bundle for a CodeRunSpec at its current
// contextVersion and promptModification/promptMode.
func CodeRun(spec agentsv1.CodeRunSpec, promptMode string, cfg config.Config) (Bundle, error) {
	type promptData struct {
		agentsv1.CodeRunSpec
		PromptMode string
	}
	prompt, err := execute("coderun_prompt.md.tmpl", promptData{CodeRunSpec: spec, PromptMode: promptMode})
	if err != nil {
		return Bundle{}, err
	}
	memory, err := execute("memory.md.tmpl", struct {
		ContextVersion  uint32
		OverwriteMemory bool
	}{ContextVersion: spec.ContextVersion, OverwriteMemory: spec.OverwriteMemory})
	if err != nil {
		return Bundle{}, err
	}
	var local, remote []string
	if spec.Tools != nil {
		local, remote = spec.Tools.Local, spec.Tools.Remote
	}
	entrypoint, err := execute("entrypoint.sh.tmpl", EntrypointContext{
		BundleDir:        BundleDir,
		GitRoot:          GitRoot,
		PrimaryRepoName:  repoNameFromURL(spec.RepositoryURL),
		WorkingDirectory: spec.WorkingDirectory,
		ContinueSession:  spec.ContinueSession,
		OpenPullRequest:  true,
	})
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Prompt:     prompt,
		Memory:     memory,
		ToolPolicy: mergeToolPolicy(cfg.Agent.DefaultTools, cfg.Agent.ToolsOverride, local, remote),
		Entrypoint: entrypoint,
	}, nil
}

// repoNameFromURL mirrors internal/builder.RepoNameFromURL; duplicated here
// (rather than imported) because internal/builder imports internal/render,
// and a name derived purely from a URL string is cheap enough not to be
// worth a shared third package.
func repoNameFromURL(url string) string {
	trimmed := strings.TrimSuffix(url, ".git")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return "repo"
	}
	return trimmed[idx+1:]
}
