// Copyright Contributors to the KubeOpenCode project

package status

import (
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
)

func TestFromJobFailedTakesPrecedence(t *testing.T) {
	job := &batchv1.Job{Status: batchv1.JobStatus{
		Conditions: []batchv1.JobCondition{
			{Type: batchv1.JobComplete, Status: corev1.ConditionTrue},
			{Type: batchv1.JobFailed, Status: corev1.ConditionTrue, Message: "backoff limit exceeded"},
		},
	}}
	p := FromJob(job)
	if p.Phase != agentsv1.RunPhaseFailed {
		t.Errorf("expected Failed, got %s", p.Phase)
	}
	if p.Message != "backoff limit exceeded" {
		t.Errorf("expected condition message propagated, got %q", p.Message)
	}
}

func TestFromJobCompleteIsSucceeded(t *testing.T) {
	job := &batchv1.Job{Status: batchv1.JobStatus{
		Conditions: []batchv1.JobCondition{
			{Type: batchv1.JobComplete, Status: corev1.ConditionTrue},
		},
	}}
	if p := FromJob(job); p.Phase != agentsv1.RunPhaseSucceeded {
		t.Errorf("expected Succeeded, got %s", p.Phase)
	}
}

func TestFromJobActiveIsRunning(t *testing.T) {
	job := &batchv1.Job{Status: batchv1.JobStatus{Active: 1}}
	if p := FromJob(job); p.Phase != agentsv1.RunPhaseRunning {
		t.Errorf("expected Running, got %s", p.Phase)
	}
}

func TestFromJobFailedCountWithoutConditionIsFailed(t *testing.T) {
	job := &batchv1.Job{Status: batchv1.JobStatus{Failed: 1}}
	p := FromJob(job)
	if p.Phase != agentsv1.RunPhaseFailed {
		t.Errorf("expected Failed, got %s", p.Phase)
	}
}

func TestFromJobNoSignalIsPending(t *testing.T) {
	job := &batchv1.Job{}
	if p := FromJob(job); p.Phase != agentsv1.RunPhasePending {
		t.Errorf("expected Pending, got %s", p.Phase)
	}
}

func TestConditionFailedIsConditionFalse(t *testing.T) {
	p := Projection{Phase: agentsv1.RunPhaseFailed, Reason: agentsv1.ReasonJobFailed, Message: "x"}
	c := p.Condition(3)
	if c.Status != "False" {
		t.Errorf("expected ConditionFalse for Failed phase, got %s", c.Status)
	}
	if c.Type != string(agentsv1.RunPhaseFailed) {
		t.Errorf("expected condition type to equal phase string, got %q", c.Type)
	}
}
