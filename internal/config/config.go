// Copyright Contributors to the KubeOpenCode project

// Package config loads and validates the operator's static configuration:
// default images, pull secrets, credential secret-name templates, and the
// default tool allow/deny policy applied to every CodeRun and DocsRun.
package config

import (
	"os"

	validator "github.com/go-playground/validator/v10"
	corev1 "k8s.io/api/core/v1"
	yaml "gopkg.in/yaml.v3"

	"github.com/5dlabs/platform-sub001/internal/errs"
)

// missingImageSentinel is written into a freshly scaffolded config file in
// place of a real image reference; validate rejects it so an operator
// deployed against unedited defaults fails fast instead of scheduling Jobs
// that ImagePullBackOff forever.
const missingImageSentinel = "MISSING_IMAGE_CONFIG"

// JobConfig controls the Job and Pod template the resource builder produces.
type JobConfig struct {
	// AgentImage is the container image running the agent entrypoint.
	AgentImage string `yaml:"agentImage" validate:"required"`
	// ActiveDeadlineSeconds bounds how long a Job may run before the
	// kubelet/job-controller marks it Failed.
	ActiveDeadlineSeconds int64 `yaml:"activeDeadlineSeconds" validate:"gt=0"`
	// ImagePullSecret is attached to every Job's Pod template.
	ImagePullSecret string `yaml:"imagePullSecret"`
	// ServiceAccountName is the ServiceAccount Jobs run under.
	ServiceAccountName string `yaml:"serviceAccountName"`
	// WorkspaceStorageSize is the storage request for a service's shared
	// workspace PVC, applied only the first time that PVC is created.
	WorkspaceStorageSize string `yaml:"workspaceStorageSize" validate:"required"`
	// WorkspaceStorageClass, if set, is the StorageClassName requested on a
	// newly created workspace PVC. Empty defers to the cluster default.
	WorkspaceStorageClass string `yaml:"workspaceStorageClass,omitempty"`
}

// CleanupConfig controls whether terminal Jobs are deleted eagerly.
type CleanupConfig struct {
	// Enabled, when true, causes the reconciler to delete a run's Job once
	// the status projector reports a terminal phase. Only the Job is
	// deleted: the run's ConfigMap is owned by the run, not the Job, so it
	// stays until the run itself is deleted. The workspace PVC is never
	// touched regardless of this setting.
	Enabled bool `yaml:"enabled"`
}

// AgentConfig controls defaults applied when a run spec leaves a field empty.
type AgentConfig struct {
	// DefaultModel is used when DocsRunSpec.Model is empty.
	DefaultModel string `yaml:"defaultModel" validate:"required"`
	// ToolsOverride, if non-nil, replaces DefaultTools as the base policy;
	// a run's spec.tools entries are still added on top of it. Empty by
	// default: runs extend the default policy below.
	ToolsOverride *AgentTools `yaml:"agentToolsOverride,omitempty"`
	// DefaultTools is merged with any run-supplied tools.Local/tools.Remote.
	DefaultTools AgentTools `yaml:"defaultTools"`
}

// AgentTools is the allow/deny tool policy shape of AgentConfig's defaults
// and override. A CodeRun's spec.tools (local/remote names) has its own
// shape; the renderer adds those names to this policy as allowed tools.
type AgentTools struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// SecretsConfig names the Secrets the builder mounts for credentials,
// keyed by the naming convention described in api/v1's
// DocsRunSpec.GitHubUser / CodeRunSpec.GitHubUser doc comments.
type SecretsConfig struct {
	// APIKeySecretName is the Secret holding the agent model provider key.
	APIKeySecretName string `yaml:"apiKeySecretName" validate:"required"`
	// APIKeySecretKey is the key within APIKeySecretName.
	APIKeySecretKey string `yaml:"apiKeySecretKey" validate:"required"`
	// GitHubSSHSecretPrefix + githubUser names the SSH credential Secret.
	GitHubSSHSecretPrefix string `yaml:"githubSshSecretPrefix"`
	// GitHubTokenSecretPrefix + githubUser names the token credential Secret.
	GitHubTokenSecretPrefix string `yaml:"githubTokenSecretPrefix"`
}

// PermissionsConfig is validated when the config is loaded. The renderer
// does not read it: the rendered tool policy is built only from
// AgentConfig's DefaultTools/ToolsOverride and a run's spec.tools.
type PermissionsConfig struct {
	// Default is the fallback permission action for tools not otherwise
	// matched ("allow", "ask", or "deny").
	Default string `yaml:"default" validate:"oneof=allow ask deny"`
}

// TelemetryConfig controls both the agent container's own OTLP export
// (Enabled/OTLPEndpoint/OTLPProtocol/LogsEndpoint/LogsProtocol, wired into
// the rendered entrypoint as environment per run) and the operator
// process's own log verbosity (LogLevel).
type TelemetryConfig struct {
	// Enabled gates whether the resource builder injects the OTLP
	// environment below into a run's agent container at all.
	Enabled bool `yaml:"enabled"`
	// OTLPEndpoint is the collector endpoint the agent exports traces/metrics to.
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
	// OTLPProtocol is the wire protocol the agent's OTLP exporter speaks
	// (e.g. "grpc", "http/protobuf").
	OTLPProtocol string `yaml:"otlpProtocol,omitempty"`
	// LogsEndpoint is the collector endpoint the agent ships logs to, if it
	// differs from OTLPEndpoint.
	LogsEndpoint string `yaml:"logsEndpoint,omitempty"`
	// LogsProtocol is the wire protocol for LogsEndpoint.
	LogsProtocol string `yaml:"logsProtocol,omitempty"`
	// LogLevel is one of zapcore's level names ("debug", "info", "warn", "error").
	// It is validated on load but not read by the operator's logger, whose
	// setup is chosen by cmd/operator's --development flag alone; it is not
	// rendered into any run.
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
}

// ControllerConfig tunes the watch/queue runtime shared by both reconcilers.
type ControllerConfig struct {
	// MaxConcurrentReconciles bounds how many DocsRun/CodeRun reconciles run
	// at once, per kind. controller-runtime defaults this to 1 if left
	// unconfigured; the operator always sets it explicitly via Default().
	MaxConcurrentReconciles int `yaml:"maxConcurrentReconciles" validate:"gt=0"`
}

// Config is the operator's full static configuration, loaded once at
// startup from a ConfigMap-mounted file and never hot-reloaded.
type Config struct {
	Job         JobConfig         `yaml:"job" validate:"required"`
	Agent       AgentConfig       `yaml:"agent" validate:"required"`
	Secrets     SecretsConfig     `yaml:"secrets" validate:"required"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Cleanup     CleanupConfig     `yaml:"cleanup"`
	Controller  ControllerConfig  `yaml:"controller"`
}

// Default returns the configuration an operator ships with before an
// administrator supplies environment-specific overrides. AgentImage is
// deliberately left as the sentinel value: Load rejects it, forcing a real
// image to be configured rather than silently scheduling broken Jobs.
func Default() Config {
	return Config{
		Job: JobConfig{
			AgentImage:            missingImageSentinel,
			ActiveDeadlineSeconds: 7200,
			ImagePullSecret:       "ghcr-secret",
			ServiceAccountName:    "agent-platform",
			WorkspaceStorageSize:  "10Gi",
		},
		Agent: AgentConfig{
			DefaultModel: "claude-sonnet-4-5",
			DefaultTools: AgentTools{
				Allow: []string{"*"},
			},
		},
		Secrets: SecretsConfig{
			APIKeySecretName:        "anthropic-api-key",
			APIKeySecretKey:         "api-key",
			GitHubSSHSecretPrefix:   "github-ssh-",
			GitHubTokenSecretPrefix: "github-token-",
		},
		Permissions: PermissionsConfig{
			Default: "allow",
		},
		Telemetry: TelemetryConfig{
			LogLevel: "info",
		},
		Controller: ControllerConfig{
			MaxConcurrentReconciles: 2,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects a Config that is structurally incomplete or still carries
// the unedited sentinel image reference.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.NewConfigError("struct validation", err)
	}
	if c.Job.AgentImage == missingImageSentinel {
		return errs.NewConfigError("job.agentImage is unset (still "+missingImageSentinel+")", nil)
	}
	return nil
}

// Load reads and validates a YAML config file at path, starting from
// Default() so a partial file only overrides the fields it sets. If path
// cannot be read at all, Load falls back to Default() and revalidates it
// rather than failing immediately: an operator with no config override
// mounted at all should still start up if the compiled-in defaults are
// valid on their own.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		cfg := Default()
		if verr := cfg.Validate(); verr != nil {
			return Config{}, errs.NewConfigError("reading "+path+" failed and defaults are invalid", verr)
		}
		return cfg, nil
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errs.NewConfigError("parsing "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromConfigMap validates and parses the config.yaml key of a ConfigMap
// already fetched by the caller, mirroring Load's semantics for the
// in-cluster ConfigMap-mounted deployment path.
func LoadFromConfigMap(cm *corev1.ConfigMap, key string) (Config, error) {
	if key == "" {
		key = "config.yaml"
	}
	raw, ok := cm.Data[key]
	if !ok {
		return Config{}, errs.NewConfigError("configmap "+cm.Name+" missing key "+key, nil)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, errs.NewConfigError("parsing configmap "+cm.Name+" key "+key, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
