// Copyright Contributors to the KubeOpenCode project

package controller

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
)

var _ = Describe("DocsRun reconciliation", func() {
	It("adds a finalizer, creates a Job, and tracks Running to Succeeded", func() {
		run := &agentsv1.DocsRun{
			ObjectMeta: metav1.ObjectMeta{Name: "docs-1", Namespace: "default"},
			Spec: agentsv1.DocsRunSpec{
				RepositoryURL:    "https://github.com/ex/repo",
				WorkingDirectory: "projects/p",
				SourceBranch:     "main",
				Model:            "opus",
			},
		}
		c := newGinkgoClient(run)
		r := &DocsRunReconciler{Client: c, Scheme: ginkgoScheme, Config: ginkgoConfig()}
		key := client.ObjectKeyFromObject(run)
		req := ctrl.Request{NamespacedName: key}

		By("first reconcile adding the finalizer")
		_, err := r.Reconcile(ginkgoCtx, req)
		Expect(err).NotTo(HaveOccurred())
		got := &agentsv1.DocsRun{}
		Expect(c.Get(ginkgoCtx, key, got)).To(Succeed())
		Expect(got.Finalizers).To(ContainElement(agentsv1.DocsRunFinalizer))

		By("second reconcile creating the Job and ConfigMap")
		_, err = r.Reconcile(ginkgoCtx, req)
		Expect(err).NotTo(HaveOccurred())
		job := &batchv1.Job{}
		Expect(c.Get(ginkgoCtx, client.ObjectKey{Namespace: "default", Name: "docs-docs-1"}, job)).To(Succeed())
		Expect(*job.Spec.Completions).To(Equal(int32(1)))
		cm := &corev1.ConfigMap{}
		Expect(c.Get(ginkgoCtx, client.ObjectKey{Namespace: "default", Name: "docs-docs-1-cfg"}, cm)).To(Succeed())
		Expect(cm.Data).To(HaveKey("entrypoint.sh"))

		By("an Active Job projects Running")
		job.Status.Active = 1
		Expect(c.Status().Update(ginkgoCtx, job)).To(Succeed())
		_, err = r.Reconcile(ginkgoCtx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Get(ginkgoCtx, key, got)).To(Succeed())
		Expect(got.Status.Phase).To(Equal(agentsv1.RunPhaseRunning))

		By("a Complete condition projects Succeeded and sets workCompleted")
		job.Status.Active = 0
		job.Status.Conditions = []batchv1.JobCondition{{Type: batchv1.JobComplete, Status: corev1.ConditionTrue}}
		Expect(c.Status().Update(ginkgoCtx, job)).To(Succeed())
		_, err = r.Reconcile(ginkgoCtx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Get(ginkgoCtx, key, got)).To(Succeed())
		Expect(got.Status.Phase).To(Equal(agentsv1.RunPhaseSucceeded))
		Expect(got.Status.WorkCompleted).To(BeTrue())

		By("a further reconcile after workCompleted is a no-op")
		_, err = r.Reconcile(ginkgoCtx, req)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("CodeRun deletion", func() {
	It("deletes the owned Job and ConfigMap but preserves the shared workspace PVC", func() {
		run := newCodeRun("code-9", 1)
		now := metav1.Now()
		run.DeletionTimestamp = &now
		c := newGinkgoClient(run)
		r := &CodeRunReconciler{Client: c, Scheme: ginkgoScheme, Config: ginkgoConfig()}
		key := client.ObjectKeyFromObject(run)

		pvc := &corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: "workspace-orchestrator-core", Namespace: "default"},
		}
		Expect(c.Create(ginkgoCtx, pvc)).To(Succeed())
		job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Name: "code-code-9-v1", Namespace: "default"}}
		Expect(c.Create(ginkgoCtx, job)).To(Succeed())
		cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "code-code-9-cfg-1", Namespace: "default"}}
		Expect(c.Create(ginkgoCtx, cm)).To(Succeed())

		_, err := r.Reconcile(ginkgoCtx, ctrl.Request{NamespacedName: key})
		Expect(err).NotTo(HaveOccurred())

		Expect(c.Get(ginkgoCtx, client.ObjectKeyFromObject(job), &batchv1.Job{})).NotTo(Succeed())
		Expect(c.Get(ginkgoCtx, client.ObjectKeyFromObject(cm), &corev1.ConfigMap{})).NotTo(Succeed())
		Expect(c.Get(ginkgoCtx, client.ObjectKeyFromObject(pvc), &corev1.PersistentVolumeClaim{})).To(Succeed())

		// With its deletion timestamp set and its last finalizer removed, the
		// run is reaped.
		got := &agentsv1.CodeRun{}
		err = c.Get(ginkgoCtx, key, got)
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
		Expect(got.Finalizers).NotTo(ContainElement(agentsv1.CodeRunFinalizer))
	})
})
