// Copyright Contributors to the KubeOpenCode project

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope="Namespaced",shortName=dr
// +kubebuilder:printcolumn:JSONPath=`.status.phase`,name="Phase",type=string
// +kubebuilder:printcolumn:JSONPath=`.metadata.creationTimestamp`,name="Age",type=date

// DocsRun generates documentation for a tasks bundle against a documentation
// repository. It is a one-shot run: the operator materializes exactly one
// Job for it and never re-runs it once workCompleted is set.
type DocsRun struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec DocsRunSpec `json:"spec"`

	// +optional
	Status DocsRunStatus `json:"status,omitempty"`
}

// DocsRunSpec is immutable after creation for every field the operator reads;
// additional user-added fields are ignored.
type DocsRunSpec struct {
	// RepositoryURL is the documentation repository to clone.
	// +required
	RepositoryURL string `json:"repositoryUrl"`

	// WorkingDirectory is the relative path within the repository that
	// contains the tasks bundle directory.
	// +required
	WorkingDirectory string `json:"workingDirectory"`

	// SourceBranch is the branch to check out in RepositoryURL.
	// +required
	SourceBranch string `json:"sourceBranch"`

	// Model is the agent model identifier. Falls back to the operator's
	// default model when empty.
	// +optional
	Model string `json:"model,omitempty"`

	// GitHubUser selects the github-ssh-<githubUser>/github-token-<githubUser>
	// credential pair. Credentials are resolved from GitHubUser only.
	// +optional
	GitHubUser string `json:"githubUser,omitempty"`

	// GitHubApp names a GitHub App credential. The operator carries it in
	// the spec but does not resolve or mount any credential from it.
	// +optional
	GitHubApp string `json:"githubApp,omitempty"`

	// IncludeCodebase adds a note about the target service's codebase to the
	// rendered prompt. The Job clones only RepositoryURL; no codebase
	// repository is cloned or mounted for it.
	// +optional
	IncludeCodebase bool `json:"includeCodebase,omitempty"`
}

// DocsRunStatus is owned entirely by the operator.
type DocsRunStatus struct {
	// +optional
	Phase RunPhase `json:"phase,omitempty"`

	// +optional
	Message string `json:"message,omitempty"`

	// LastUpdate is the RFC3339 timestamp of the last status write.
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

	// WorkCompleted transitions false->true exactly once, on the first
	// observed Succeeded Job, and never reverts.
	// +optional
	WorkCompleted bool `json:"workCompleted,omitempty"`

	// PullRequestURL is not written by the operator; the rendered entrypoint
	// script only logs where the agent recorded the pull request URL.
	// +optional
	PullRequestURL string `json:"pullRequestUrl,omitempty"`
}

// +kubebuilder:object:root=true

// DocsRunList contains a list of DocsRun.
type DocsRunList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []DocsRun `json:"items"`
}
