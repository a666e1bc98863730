// Copyright Contributors to the KubeOpenCode project

package v1

// RunPhase is the coarse-grained lifecycle phase of a DocsRun or CodeRun.
// +kubebuilder:validation:Enum=Pending;Running;Succeeded;Failed;Cancelled
type RunPhase string

const (
	RunPhasePending   RunPhase = "Pending"
	RunPhaseRunning   RunPhase = "Running"
	RunPhaseSucceeded RunPhase = "Succeeded"
	RunPhaseFailed    RunPhase = "Failed"
	RunPhaseCancelled RunPhase = "Cancelled"
)

// IsTerminal reports whether the phase is one the state machine does not leave.
func (p RunPhase) IsTerminal() bool {
	switch p {
	case RunPhaseSucceeded, RunPhaseFailed, RunPhaseCancelled:
		return true
	default:
		return false
	}
}

const (
	// DocsRunFinalizer is added to every DocsRun the operator has observed.
	DocsRunFinalizer = "docsruns.agents.platform/finalizer"
	// CodeRunFinalizer is added to every CodeRun the operator has observed.
	CodeRunFinalizer = "coderuns.agents.platform/finalizer"
)

const (
	// LabelApp marks every object the operator materializes.
	LabelApp = "app"
	// AppName is the value of LabelApp on all materialized objects.
	AppName = "agent-platform"
	// LabelKind identifies which run kind produced an object ("docs" or "code").
	LabelKind = "agents.platform/kind"
	// LabelRun carries the owning run's name.
	LabelRun = "agents.platform/run"
	// LabelContextVersion carries the CodeRun contextVersion that produced a Job.
	LabelContextVersion = "agents.platform/context-version"
	// LabelContentHash is a stable hash of the rendered artifact bundle / pod template,
	// used to detect "no-op" rebuilds without a full deep-equal.
	LabelContentHash = "agents.platform/content-hash"
	// LabelService marks a shared workspace PVC with the CodeRun service it
	// belongs to; the PVC itself carries no owner reference.
	LabelService = "agents.platform/service"

	// KindDocs is the LabelKind value for DocsRun-owned objects.
	KindDocs = "docs"
	// KindCode is the LabelKind value for CodeRun-owned objects.
	KindCode = "code"
)

// Condition reasons shared by both run kinds. The condition Type is the
// phase string itself (spec resolution: phase-as-condition-type form), so
// only Reason values are enumerated here.
const (
	ReasonAwaitingJob    = "AwaitingJob"
	ReasonJobRunning     = "JobRunning"
	ReasonJobSucceeded   = "JobSucceeded"
	ReasonJobFailed      = "JobFailed"
	ReasonTemplateError  = "TemplateError"
	ReasonConfigError    = "ConfigError"
	ReasonClusterAPIErr  = "ClusterAPIError"
)

// EnvFromSecretRef binds one Secret key into the agent container's environment
// under a caller-chosen name.
type EnvFromSecretRef struct {
	// Name is the environment variable name exposed to the agent container.
	// +required
	Name string `json:"name"`
	// SecretName is the Secret containing the value.
	// +required
	SecretName string `json:"secretName"`
	// SecretKey is the key within SecretName to expose.
	// +required
	SecretKey string `json:"secretKey"`
}

// ToolsSpec enables/disables local and remote tool sets for a CodeRun.
type ToolsSpec struct {
	// Local lists local tool names to enable.
	// +optional
	Local []string `json:"local,omitempty"`
	// Remote lists remote MCP tool/server names to enable.
	// +optional
	Remote []string `json:"remote,omitempty"`
}
