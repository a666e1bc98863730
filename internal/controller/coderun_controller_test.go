// Copyright Contributors to the KubeOpenCode project

package controller

import (
	"context"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
)

func newCodeRun(name string, contextVersion uint32) *agentsv1.CodeRun {
	return &agentsv1.CodeRun{
		ObjectMeta: metav1.ObjectMeta{
			Name: name, Namespace: "default",
			Finalizers: []string{agentsv1.CodeRunFinalizer},
		},
		Spec: agentsv1.CodeRunSpec{
			TaskID:            1,
			Service:           "orchestrator-core",
			RepositoryURL:     "https://github.com/5dlabs/platform",
			DocsRepositoryURL: "https://github.com/5dlabs/docs",
			Model:             "claude-sonnet-4-5",
			GitHubUser:        "alice",
			ContextVersion:    contextVersion,
		},
	}
}

func TestCodeRunReconcileCreatesVersionedJob(t *testing.T) {
	scheme := newTestScheme(t)
	run := newCodeRun("c1", 1)
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(run).WithStatusSubresource(run).Build()
	r := &CodeRunReconciler{Client: c, Scheme: scheme, Config: testConfig()}

	req := ctrl.Request{NamespacedName: client.ObjectKeyFromObject(run)}
	if _, err := r.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	job := &batchv1.Job{}
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: "default", Name: "code-c1-v1"}, job); err != nil {
		t.Fatalf("expected Job code-c1-v1 to be created: %v", err)
	}
}

func TestCodeRunRetryBumpsContextVersionLeavesPriorJob(t *testing.T) {
	scheme := newTestScheme(t)
	run := newCodeRun("c2", 1)
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(run).WithStatusSubresource(run).Build()
	r := &CodeRunReconciler{Client: c, Scheme: scheme, Config: testConfig()}
	ctx := context.Background()
	req := ctrl.Request{NamespacedName: client.ObjectKeyFromObject(run)}

	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("initial reconcile: %v", err)
	}

	got := &agentsv1.CodeRun{}
	if err := c.Get(ctx, req.NamespacedName, got); err != nil {
		t.Fatal(err)
	}
	got.Spec.ContextVersion = 2
	if err := c.Update(ctx, got); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("retry reconcile: %v", err)
	}

	oldJob := &batchv1.Job{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: "default", Name: "code-c2-v1"}, oldJob); err != nil {
		t.Fatalf("expected prior Job code-c2-v1 to remain: %v", err)
	}
	newJob := &batchv1.Job{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: "default", Name: "code-c2-v2"}, newJob); err != nil {
		t.Fatalf("expected new Job code-c2-v2 to be created: %v", err)
	}
}

func TestCodeRunDefaultsPromptModeOnFirstReconcile(t *testing.T) {
	scheme := newTestScheme(t)
	run := newCodeRun("c3", 1)
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(run).WithStatusSubresource(run).Build()
	r := &CodeRunReconciler{Client: c, Scheme: scheme, Config: testConfig()}
	ctx := context.Background()
	req := ctrl.Request{NamespacedName: client.ObjectKeyFromObject(run)}

	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	got := &agentsv1.CodeRun{}
	if err := c.Get(ctx, req.NamespacedName, got); err != nil {
		t.Fatal(err)
	}
	if got.Status.PromptMode != agentsv1.DefaultPromptMode {
		t.Errorf("expected default prompt mode %q, got %q", agentsv1.DefaultPromptMode, got.Status.PromptMode)
	}
}

func TestCodeRunReconcileCreatesSharedWorkspacePVC(t *testing.T) {
	scheme := newTestScheme(t)
	run := newCodeRun("c4", 1)
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(run).WithStatusSubresource(run).Build()
	r := &CodeRunReconciler{Client: c, Scheme: scheme, Config: testConfig()}
	ctx := context.Background()
	req := ctrl.Request{NamespacedName: client.ObjectKeyFromObject(run)}

	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	pvc := &corev1.PersistentVolumeClaim{}
	if err := c.Get(ctx, client.ObjectKey{Namespace: "default", Name: "workspace-orchestrator-core"}, pvc); err != nil {
		t.Fatalf("expected shared workspace PVC to be created: %v", err)
	}
	if len(pvc.OwnerReferences) != 0 {
		t.Errorf("expected workspace PVC to carry no owner reference, got %+v", pvc.OwnerReferences)
	}
}

func TestCodeRunTerminalPhaseNotReopenedBySameContextVersion(t *testing.T) {
	scheme := newTestScheme(t)
	run := newCodeRun("c5", 1)
	run.Status.Phase = agentsv1.RunPhaseSucceeded
	run.Status.ContextVersion = 1
	c := fake.NewClientBuilder().WithScheme(scheme).WithObjects(run).WithStatusSubresource(run).Build()
	r := &CodeRunReconciler{Client: c, Scheme: scheme, Config: testConfig()}
	ctx := context.Background()
	req := ctrl.Request{NamespacedName: client.ObjectKeyFromObject(run)}

	// Simulate a prior Job having already been cleaned up; Reconcile must
	// not materialize a new one for the same, already-terminal contextVersion.
	if _, err := r.Reconcile(ctx, req); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	job := &batchv1.Job{}
	err := c.Get(ctx, client.ObjectKey{Namespace: "default", Name: "code-c5-v1"}, job)
	if err == nil {
		t.Fatal("expected no Job to be (re)created for an already-terminal contextVersion")
	}
}
