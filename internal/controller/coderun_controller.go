// Copyright Contributors to the KubeOpenCode project

package controller

import (
	"context"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
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

// CodeRunReconciler reconciles a CodeRun. Unlike DocsRun, a CodeRun can be
// retried in place: bumping spec.contextVersion produces a fresh
// ConfigMap/Job pair named after the new version while leaving any prior
// Job alone. status.sessionId and status.promptMode are pass-through fields
// the operator only ever copies; status.contextVersion records the attempt
// the status reflects and decides whether a terminal phase still applies.
type CodeRunReconciler struct {
	client.Client
	Scheme *runtime.Scheme
	Config config.Config
}

// +kubebuilder:rbac:groups=agents.platform,resources=coderuns,verbs=get;list;watch;update;patch
// +kubebuilder:rbac:groups=agents.platform,resources=coderuns/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=agents.platform,resources=coderuns/finalizers,verbs=update
// +kubebuilder:rbac:groups=batch,resources=jobs,verbs=get;list;watch;create;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;delete
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

func (r *CodeRunReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	defer observeReconcileDuration(agentsv1.KindCode, time.Now())
	log := log.FromContext(ctx)

	run := &agentsv1.CodeRun{}
	if err := r.Get(ctx, req.NamespacedName, run); err != nil {
		if errs.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if !run.DeletionTimestamp.IsZero() {
		return r.handleDeletion(ctx, run)
	}

	if !controllerutil.ContainsFinalizer(run, agentsv1.CodeRunFinalizer) {
		controllerutil.AddFinalizer(run, agentsv1.CodeRunFinalizer)
		if err := r.Update(ctx, run); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{Requeue: true}, nil
	}

	contextVersion := run.Spec.ContextVersion
	if contextVersion == 0 {
		contextVersion = 1
	}

	// A CodeRun already terminal for the contextVersion it last built a Job
	// for is done: a subsequent contextVersion bump is the only thing that
	// reopens it (invariant: terminal phases aren't revisited by stray Job
	// events, e.g. a cleanup-triggered deletion of the terminal Job itself).
	if run.Status.Phase.IsTerminal() && run.Status.ContextVersion == contextVersion {
		return ctrl.Result{}, nil
	}

	if err := r.ensureWorkspacePVC(ctx, run); err != nil {
		return ctrl.Result{}, err
	}

	objName := codeRunObjectName(run.Name, contextVersion)
	job := &batchv1.Job{}
	err := r.Get(ctx, client.ObjectKey{Namespace: run.Namespace, Name: objName}, job)
	switch {
	case errs.IsNotFound(err):
		// Either this is the first reconcile, or contextVersion was bumped
		// since the last Job was built: either way, materialize a new Job
		// for the current contextVersion. The prior Job, if any, is left
		// exactly where it is.
		if run.Status.ContextVersion != 0 && run.Status.ContextVersion != contextVersion {
			run.Status.RetryCount++
		}
		if err := r.createJob(ctx, run, contextVersion); err != nil {
			log.Error(err, "failed to create Job for CodeRun")
			return r.applyProjection(ctx, run, contextVersion, status.Projection{
				Phase: agentsv1.RunPhaseFailed, Reason: agentsv1.ReasonTemplateError, Message: err.Error(),
			})
		}
		return r.applyProjection(ctx, run, contextVersion, status.NoJob())
	case err != nil:
		return ctrl.Result{}, err
	}

	proj := status.FromJob(job)
	run.Status.JobName = job.Name
	return r.applyProjection(ctx, run, contextVersion, proj)
}

func codeRunObjectName(runName string, contextVersion uint32) string {
	return builder.BuildSpec{RunKind: agentsv1.KindCode, RunName: runName, ContextVersion: contextVersion}.ObjectName()
}

func codeRunConfigMapName(runName string, contextVersion uint32) string {
	return builder.BuildSpec{RunKind: agentsv1.KindCode, RunName: runName, ContextVersion: contextVersion}.ConfigMapName()
}

// ensureWorkspacePVC creates the service's shared workspace PVC the first
// time any CodeRun for that service reconciles; it is never updated or
// deleted by the operator, so AlreadyExists (a concurrent sibling CodeRun
// winning the race) is accepted the same as a successful create.
func (r *CodeRunReconciler) ensureWorkspacePVC(ctx context.Context, run *agentsv1.CodeRun) error {
	pvc := &corev1.PersistentVolumeClaim{}
	name := builder.WorkspacePVCName(run.Spec.Service)
	err := r.Get(ctx, client.ObjectKey{Namespace: run.Namespace, Name: name}, pvc)
	if err == nil {
		return nil
	}
	if !errs.IsNotFound(err) {
		return err
	}
	desired := builder.BuildWorkspacePVC(run.Namespace, run.Spec.Service, r.Config)
	if err := r.Create(ctx, desired); err != nil && !apierrors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

func (r *CodeRunReconciler) createJob(ctx context.Context, run *agentsv1.CodeRun, contextVersion uint32) error {
	promptMode := run.Status.PromptMode
	if promptMode == "" {
		promptMode = agentsv1.DefaultPromptMode
	}

	bundle, err := render.CodeRun(run.Spec, promptMode, r.Config)
	if err != nil {
		return err
	}

	repos := []builder.RepoRef{
		{Name: builder.RepoNameFromURL(run.Spec.RepositoryURL), URL: run.Spec.RepositoryURL},
	}
	if run.Spec.DocsRepositoryURL != "" {
		repos = append(repos, builder.RepoRef{
			Name: "docs",
			URL:  run.Spec.DocsRepositoryURL,
			Ref:  run.Spec.DocsBranch,
			Path: run.Spec.DocsProjectDirectory,
		})
	}

	spec := builder.BuildSpec{
		RunKind:        agentsv1.KindCode,
		RunName:        run.Name,
		Namespace:      run.Namespace,
		OwnerRef:       ownerRefCode(run, "CodeRun"),
		Repos:          repos,
		Credentials:    builder.ResolveCredentials(r.Config, run.Spec.GitHubUser),
		Model:          run.Spec.Model,
		Env:            run.Spec.Env,
		EnvFromSecrets: run.Spec.EnvFromSecrets,
		ContextVersion: contextVersion,
		Service:        run.Spec.Service,
	}

	cm := builder.BuildConfigMap(spec, bundle)
	if err := r.Create(ctx, cm); err != nil && !errs.IsConflict(err) {
		return err
	}

	job := builder.BuildJob(spec, r.Config, cm)
	if err := r.Create(ctx, job); err != nil && !errs.IsConflict(err) {
		return err
	}
	metrics.JobsCreatedTotal.WithLabelValues(agentsv1.KindCode).Inc()

	run.Status.ConfigMapName = cm.Name
	run.Status.PromptMode = promptMode
	run.Status.PromptModification = run.Spec.PromptModification
	run.Status.ContextVersion = contextVersion
	return nil
}

func (r *CodeRunReconciler) applyProjection(ctx context.Context, run *agentsv1.CodeRun, contextVersion uint32, proj status.Projection) (ctrl.Result, error) {
	run.Status.Phase = proj.Phase
	run.Status.Message = proj.Message
	run.Status.ContextVersion = contextVersion
	now := metav1.Now()
	run.Status.LastUpdate = &now
	meta.SetStatusCondition(&run.Status.Conditions, proj.Condition(run.Generation))

	if err := r.Status().Update(ctx, run); err != nil {
		return ctrl.Result{}, err
	}
	metrics.ReconcileTotal.WithLabelValues(agentsv1.KindCode, string(proj.Phase)).Inc()
	if proj.Phase.IsTerminal() {
		if r.Config.Cleanup.Enabled {
			name := codeRunObjectName(run.Name, contextVersion)
			if err := deleteByName(ctx, r.Client, &batchv1.Job{}, run.Namespace, name); err != nil {
				return ctrl.Result{}, err
			}
		}
		return ctrl.Result{}, nil
	}
	return ctrl.Result{RequeueAfter: defaultPollInterval}, nil
}

func (r *CodeRunReconciler) handleDeletion(ctx context.Context, run *agentsv1.CodeRun) (ctrl.Result, error) {
	if !controllerutil.ContainsFinalizer(run, agentsv1.CodeRunFinalizer) {
		return ctrl.Result{}, nil
	}

	contextVersion := run.Spec.ContextVersion
	if contextVersion == 0 {
		contextVersion = 1
	}
	if err := deleteByName(ctx, r.Client, &batchv1.Job{}, run.Namespace, codeRunObjectName(run.Name, contextVersion)); err != nil {
		return ctrl.Result{}, err
	}
	if err := deleteByName(ctx, r.Client, &corev1.ConfigMap{}, run.Namespace, codeRunConfigMapName(run.Name, contextVersion)); err != nil {
		return ctrl.Result{}, err
	}

	controllerutil.RemoveFinalizer(run, agentsv1.CodeRunFinalizer)
	if err := r.Update(ctx, run); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// SetupWithManager registers the CodeRun controller, watching the Jobs it
// owns so a Job status change triggers a re-reconcile of its CodeRun.
func (r *CodeRunReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&agentsv1.CodeRun{}).
		Owns(&batchv1.Job{}).
		Owns(&corev1.ConfigMap{}).
		WithOptions(controller.Options{MaxConcurrentReconciles: r.Config.Controller.MaxConcurrentReconciles}).
		Complete(r)
}
