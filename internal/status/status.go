// Copyright Contributors to the KubeOpenCode project

// Package status projects a Job's observed state into the RunPhase,
// condition and message a DocsRun or CodeRun reconciler writes back to its
// status subresource. Projection is a pure function of the Job so it can be
// unit tested without a cluster.
package status

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
)

// Projection is the outcome a reconciler applies to a run's status.
type Projection struct {
	Phase   agentsv1.RunPhase
	Reason  string
	Message string
}

// NoJob is what a reconciler applies before any Job exists yet.
func NoJob() Projection {
	return Projection{
		Phase:   agentsv1.RunPhasePending,
		Reason:  agentsv1.ReasonAwaitingJob,
		Message: "waiting for Job to be created",
	}
}

// FromJob inspects a Job's status conditions, following the same
// Succeeded/Failed-condition precedence the Kubernetes job controller
// itself uses, and falls back to Active>0 meaning Running.
func FromJob(job *batchv1.Job) Projection {
	for _, c := range job.Status.Conditions {
		if c.Type == batchv1.JobFailed && c.Status == corev1.ConditionTrue {
			return Projection{
				Phase:   agentsv1.RunPhaseFailed,
				Reason:  agentsv1.ReasonJobFailed,
				Message: firstNonEmpty(c.Message, "Job failed"),
			}
		}
	}
	for _, c := range job.Status.Conditions {
		if c.Type == batchv1.JobComplete && c.Status == corev1.ConditionTrue {
			return Projection{
				Phase:   agentsv1.RunPhaseSucceeded,
				Reason:  agentsv1.ReasonJobSucceeded,
				Message: "Job completed successfully",
			}
		}
	}
	if job.Status.Active > 0 {
		return Projection{
			Phase:   agentsv1.RunPhaseRunning,
			Reason:  agentsv1.ReasonJobRunning,
			Message: "Job is running",
		}
	}
	if job.Status.Failed > 0 {
		return Projection{
			Phase:   agentsv1.RunPhaseFailed,
			Reason:  agentsv1.ReasonJobFailed,
			Message: "Job reported a failed pod without a terminal condition",
		}
	}
	return Projection{
		Phase:   agentsv1.RunPhasePending,
		Reason:  agentsv1.ReasonAwaitingJob,
		Message: "waiting for Job to report status",
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Condition builds the metav1.Condition a reconciler passes to
// meta.SetStatusCondition. The condition Type is the phase string itself
// (phase-as-condition-type), so the Reason carries the finer-grained cause.
func (p Projection) Condition(observedGeneration int64) metav1.Condition {
	condStatus := metav1.ConditionTrue
	if p.Phase == agentsv1.RunPhaseFailed {
		condStatus = metav1.ConditionFalse
	}
	return metav1.Condition{
		Type:               string(p.Phase),
		Status:             condStatus,
		Reason:             p.Reason,
		Message:            p.Message,
		ObservedGeneration: observedGeneration,
	}
}
