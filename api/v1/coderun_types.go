// Copyright Contributors to the KubeOpenCode project

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope="Namespaced",shortName=cr
// +kubebuilder:printcolumn:JSONPath=`.spec.taskId`,name="Task",type=integer
// +kubebuilder:printcolumn:JSONPath=`.spec.service`,name="Service",type=string
// +kubebuilder:printcolumn:JSONPath=`.spec.model`,name="Model",type=string
// +kubebuilder:printcolumn:JSONPath=`.status.phase`,name="Phase",type=string
// +kubebuilder:printcolumn:JSONPath=`.metadata.creationTimestamp`,name="Age",type=date

// CodeRun implements a specific task against a target service repository.
// Unlike DocsRun, a CodeRun can be retried in place by bumping
// spec.contextVersion, which produces a fresh artifact bundle and Job while
// reusing the service's shared workspace PVC.
type CodeRun struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec CodeRunSpec `json:"spec"`

	// +optional
	Status CodeRunStatus `json:"status,omitempty"`
}

// CodeRunSpec is immutable after creation except for contextVersion and
// promptModification, which the submitter is expected to bump on retry.
type CodeRunSpec struct {
	// TaskID identifies the task being implemented.
	// +required
	TaskID uint32 `json:"taskId"`

	// Service is the target service name. It also doubles as the workspace
	// volume key: all CodeRuns with the same Service share one PVC.
	// +required
	Service string `json:"service"`

	// RepositoryURL is the target service repository where implementation
	// work happens.
	// +required
	RepositoryURL string `json:"repositoryUrl"`

	// DocsRepositoryURL is the documentation repository the task bundle
	// originates from.
	// +required
	DocsRepositoryURL string `json:"docsRepositoryUrl"`

	// DocsProjectDirectory is the relative path within DocsRepositoryURL
	// locating the task's docs project, used by the prompt renderer.
	// +optional
	DocsProjectDirectory string `json:"docsProjectDirectory,omitempty"`

	// WorkingDirectory is the relative path within RepositoryURL the agent
	// should operate in.
	// +optional
	WorkingDirectory string `json:"workingDirectory,omitempty"`

	// Model is the agent model identifier.
	// +required
	Model string `json:"model"`

	// GitHubUser selects the github-ssh-<githubUser>/github-token-<githubUser>
	// credential pair.
	// +required
	GitHubUser string `json:"githubUser"`

	// Tools enables local and/or remote tool sets beyond the operator default.
	// +optional
	Tools *ToolsSpec `json:"tools,omitempty"`

	// ContextVersion is bumped by the submitter on retry. A bump triggers a
	// fresh ConfigMap and Job; the prior Job, if any, is left in place.
	// +kubebuilder:default=1
	// +kubebuilder:validation:Minimum=1
	// +optional
	ContextVersion uint32 `json:"contextVersion,omitempty"`

	// PromptModification is appended to or replaces the rendered prompt,
	// depending on status.promptMode, on a retry.
	// +optional
	PromptModification string `json:"promptModification,omitempty"`

	// DocsBranch is the branch to check out in DocsRepositoryURL.
	// +kubebuilder:default="main"
	// +optional
	DocsBranch string `json:"docsBranch,omitempty"`

	// ContinueSession asks the agent to resume status.sessionId instead of
	// starting a fresh session. The operator only plumbs this through.
	// +optional
	ContinueSession bool `json:"continueSession,omitempty"`

	// OverwriteMemory asks the agent to regenerate its memory file instead
	// of extending the prior one.
	// +optional
	OverwriteMemory bool `json:"overwriteMemory,omitempty"`

	// Env is merged verbatim into the agent container's environment.
	// +optional
	Env map[string]string `json:"env,omitempty"`

	// EnvFromSecrets binds additional Secret keys into the agent
	// container's environment.
	// +optional
	EnvFromSecrets []EnvFromSecretRef `json:"envFromSecrets,omitempty"`
}

// CodeRunStatus is owned entirely by the operator, except sessionId which
// the agent's sidecar writes back via the status subresource.
type CodeRunStatus struct {
	// +optional
	Phase RunPhase `json:"phase,omitempty"`

	// +optional
	Message string `json:"message,omitempty"`

	// +optional
	LastUpdate *metav1.Time `json:"lastUpdate,omitempty"`

	// +optional
	JobName string `json:"jobName,omitempty"`

	// +optional
	ConfigMapName string `json:"configmapName,omitempty"`

	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// RetryCount counts retries: it is incremented each time a Job is built
	// for a contextVersion other than the one status last recorded.
	// +optional
	RetryCount int32 `json:"retryCount,omitempty"`

	// SessionID is written by the agent's sidecar once it establishes a
	// persistent session; the operator only propagates it.
	// +optional
	SessionID string `json:"sessionId,omitempty"`

	// ContextVersion mirrors spec.contextVersion as of the last reconcile
	// that produced a Job, so observers can tell which attempt status
	// reflects.
	// +optional
	ContextVersion uint32 `json:"contextVersion,omitempty"`

	// PromptModification mirrors spec.promptModification as applied.
	// +optional
	PromptModification string `json:"promptModification,omitempty"`

	// PromptMode is "append" or "replace"; defaults to "append".
	// +optional
	PromptMode string `json:"promptMode,omitempty"`

	// PullRequestURL is not written by the operator; the rendered entrypoint
	// script only logs where the agent recorded the pull request URL.
	// +optional
	PullRequestURL string `json:"pullRequestUrl,omitempty"`
}

// +kubebuilder:object:root=true

// CodeRunList contains a list of CodeRun.
type CodeRunList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CodeRun `json:"items"`
}

// DefaultPromptMode is applied when CodeRunStatus.PromptMode is unset.
const DefaultPromptMode = "append"
