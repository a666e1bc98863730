// Copyright Contributors to the KubeOpenCode project

package controller

import (
	"context"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/builder"
	"github.com/5dlabs/platform-sub001/internal/config"
	"github.com/5dlabs/platform-sub001/internal/errs"
	"github.com/5dlabs/platform-sub001/internal/metrics"
	"github.com/5dlabs/platform-sub001/internal/render"
	"github.com/5dlabs/platform-sub001/internal/status"
)

// DocsRunReconciler reconciles a DocsRun. A DocsRun is one-shot: once
// status.workCompleted is set it never materializes another Job, even if
// its Job is later deleted out-of-band.
type DocsRunReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Config config.Config
}

// +kubebuilder:rbac:groups=agents.platform,resources=docsruns,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=agents.platform,resources=docsruns/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=agents.platform,resources=docsruns/finalizers,verbs=update
// +kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;delete
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

func (r *DocsRunReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	defer observeReconcileDuration(agentsv1.KindDocs, time.Now())
	log := log.FromContext(ctx)

	run := &agentsv1.DocsRun{}
	if err := r.Get(ctx, req.NamespacedName, run); err != nil {
		if errs.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if !run.DeletionTimestamp.IsZero() {
		return r.handleDeletion(ctx, run)
	}

	if !controllerutil.ContainsFinalizer(run, agentsv1.DocsRunFinalizer) {
		controllerutil.AddFinalizer(run, agentsv1.DocsRunFinalizer)
		if err := r.Update(ctx, run); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{Requeue: true}, nil
	}

	// A DocsRun already in a terminal phase is never reopened, whether it
	// got there via Succeeded (workCompleted) or Failed/Cancelled: a
	// cleanup-triggered deletion of its Job must not be read as "no Job
	// yet, build one."
	if run.Status.Phase.IsTerminal() {
		return ctrl.Result{}, nil
	}

	objName := docsRunObjectName(run.Name)
	job := &batchv1.Job{}
	err := r.Get(ctx, client.ObjectKey{Namespace: run.Namespace, Name: objName}, job)
	switch {
	case errs.IsNotFound(err):
		if err := r.createJob(ctx, run); err != nil {
			log.Error(err, "failed to create Job for DocsRun")
			return r.applyProjection(ctx, run, status.Projection{
				Phase: agentsv1.RunPhaseFailed, Reason: agentsv1.ReasonTemplateError, Message: err.Error(),
			})
		}
		return r.applyProjection(ctx, run, status.NoJob())
	case err != nil:
		return ctrl.Result{}, err
	}

	proj := status.FromJob(job)
	run.Status.JobName = job.Name
	if proj.Phase == agentsv1.RunPhaseSucceeded && !run.Status.WorkCompleted {
		run.Status.WorkCompleted = true
	}
	return r.applyProjection(ctx, run, proj)
}

func docsRunObjectName(runName string) string {
	return builder.BuildSpec{RunKind: agentsv1.KindDocs, RunName: runName}.ObjectName()
}

func docsRunConfigMapName(runName string) string {
	return builder.BuildSpec{RunKind: agentsv1.KindDocs, RunName: runName}.ConfigMapName()
}

func (r *DocsRunReconciler) createJob(ctx context.Context, run *agentsv1.DocsRun) error {
	bundle, err := render.DocsRun(run.Spec, r.Config)
	if err != nil {
		return err
	}

	spec := builder.BuildSpec{
		RunKind:   agentsv1.KindDocs,
		RunName:   run.Name,
		Namespace: run.Namespace,
		OwnerRef:  ownerRef(run, "DocsRun"),
		Repos: []builder.RepoRef{
			{Name: builder.RepoNameFromURL(run.Spec.RepositoryURL), URL: run.Spec.RepositoryURL, Ref: run.Spec.SourceBranch},
		},
		Credentials: builder.ResolveCredentials(r.Config, run.Spec.GitHubUser),
		Model:       firstNonEmpty(run.Spec.Model, r.Config.Agent.DefaultModel),
	}

	cm := builder.BuildConfigMap(spec, bundle)
	if err := r.Create(ctx, cm); err != nil && !errs.IsConflict(err) {
		return err
	}

	job := builder.BuildJob(spec, r.Config, cm)
	if err := r.Create(ctx, job); err != nil && !errs.IsConflict(err) {
		return err
	}
	metrics.JobsCreatedTotal.WithLabelValues(agentsv1.KindDocs).Inc()
	run.Status.ConfigMapName = cm.Name
	return nil
}

func (r *DocsRunReconciler) applyProjection(ctx context.Context, run *agentsv1.DocsRun, proj status.Projection) (ctrl.Result, error) {
	run.Status.Phase = proj.Phase
	run.Status.Message = proj.Message
	now := metav1.Now()
	run.Status.LastUpdate = &now
	meta.SetStatusCondition(&run.Status.Conditions, proj.Condition(run.Generation))

	if err := r.Status().Update(ctx, run); err != nil {
		return ctrl.Result{}, err
	}
	metrics.ReconcileTotal.WithLabelValues(agentsv1.KindDocs, string(proj.Phase)).Inc()
	if proj.Phase.IsTerminal() {
		if r.Config.Cleanup.Enabled {
			if err := deleteByName(ctx, r.Client, &batchv1.Job{}, run.Namespace, docsRunObjectName(run.Name)); err != nil {
				return ctrl.Result{}, err
			}
		}
		return ctrl.Result{}, nil
	}
	return ctrl.Result{RequeueAfter: defaultPollInterval}, nil
}

func (r *DocsRunReconciler) handleDeletion(ctx context.Context, run *agentsv1.DocsRun) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(run, agentsv1.DocsRunFinalizer) {
		return ctrl.Result{}, nil
	}

	if err := deleteByName(ctx, r.Client, &batchv1.Job{}, run.Namespace, docsRunObjectName(run.Name)); err != nil {
		return ctrl.Result{}, err
	}
	if err := deleteByName(ctx, r.Client, &corev1.ConfigMap{}, run.Namespace, docsRunConfigMapName(run.Name)); err != nil {
		return ctrl.Result{}, err
	}

	controllerutil.RemoveFinalizer(run, agentsv1.DocsRunFinalizer)
	if err := r.Update(ctx, run); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// SetupWithManager registers the DocsRun controller, watching the Jobs it
// owns so a Job status change triggers a re-reconcile of its DocsRun.
func (r *DocsRunReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&agentsv1.DocsRun{}).
		Owns(&batchv1.Job{}).
		Owns(&corev1.ConfigMap{}).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.Config.Controller.MaxConcurrentReconciles}).
		Complete(r)
}
