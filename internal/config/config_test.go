// Copyright Contributors to the KubeOpenCode project

package config

import (
	"os"
	"path/filepath"
	"testing"

	corev1 "k8s.io/api/core/v1"
)

func TestDefaultRejectsSentinelImage(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Default() to fail validation until agentImage is set")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
job:
  agentImage: ghcr.io/5dlabs/agent:v1
agent:
  defaultModel: claude-sonnet-4-5
secrets:
  apiKeySecretName: anthropic-api-key
  apiKeySecretKey: api-key
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Job.AgentImage != "ghcr.io/5dlabs/agent:v1" {
		t.Fatalf("agentImage not overridden: %q", cfg.Job.AgentImage)
	}
	// Fields left unset in the file keep their Default() value.
	if cfg.Job.ActiveDeadlineSeconds != 7200 {
		t.Fatalf("expected default activeDeadlineSeconds, got %d", cfg.Job.ActiveDeadlineSeconds)
	}
	if cfg.Permissions.Default != "allow" {
		t.Fatalf("expected default permission, got %q", cfg.Permissions.Default)
	}
}

func TestLoadMissingFileFallsBackToDefaultsThenFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.yaml")

	// Default() alone still carries the sentinel image, so the fallback
	// path must surface that as a validation failure, not the raw read error.
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected Load to fail when the unreadable file's fallback defaults are still invalid")
	}
}

func TestLoadFromConfigMapMissingKey(t *testing.T) {
	cm := &corev1.ConfigMap{Data: map[string]string{}}
	if _, err := LoadFromConfigMap(cm, ""); err == nil {
		t.Fatal("expected error for missing config.yaml key")
	}
}

func TestLoadFromConfigMapValid(t *testing.T) {
	cm := &corev1.ConfigMap{Data: map[string]string{
		"config.yaml": "job:\n  agentImage: ghcr.io/5dlabs/agent:v1\n",
	}}
	cfg, err := LoadFromConfigMap(cm, "")
	if err != nil {
		t.Fatalf("LoadFromConfigMap: %v", err)
	}
	if cfg.Job.AgentImage != "ghcr.io/5dlabs/agent:v1" {
		t.Fatalf("unexpected agentImage: %q", cfg.Job.AgentImage)
	}
}
