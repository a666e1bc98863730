// Copyright Contributors to the KubeOpenCode project

package controller

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	agentsv1 "github.com/5dlabs/platform-sub001/api/v1"
	"github.com/5dlabs/platform-sub001/internal/errs"
	"github.com/5dlabs/platform-sub001/internal/metrics"
)

// observeReconcileDuration records how long one Reconcile call took, keyed
// by run kind, regardless of its outcome. Call via defer at the top of each
// reconciler's Reconcile method.
func observeReconcileDuration(kind string, start time.Time) {
	metrics.ReconcileDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// defaultPollInterval bounds how long a non-terminal DocsRun/CodeRun waits
// between reconciles when nothing else (a Job status change) wakes it
// sooner; it exists purely as a backstop against a missed watch event.
const defaultPollInterval = 30 * time.Second

// controllerOwnerRef builds the controller owner reference every
// builder.BuildSpec needs, with BlockOwnerDeletion set so the run outlives
// its Job/ConfigMap just long enough for the deletion finalizer to run.
func controllerOwnerRef(name string, uid types.UID, kind string) metav1.OwnerReference {
	t := true
	return metav1.OwnerReference{
		APIVersion:         agentsv1.GroupVersion.String(),
		Kind:               kind,
		Name:               name,
		UID:                uid,
		Controller:         &t,
		BlockOwnerDeletion: &t,
	}
}

func ownerRef(run *agentsv1.DocsRun, kind string) metav1.OwnerReference {
	return controllerOwnerRef(run.Name, run.UID, kind)
}

func ownerRefCode(run *agentsv1.CodeRun, kind string) metav1.OwnerReference {
	return controllerOwnerRef(run.Name, run.UID, kind)
}

// deleteByName deletes obj named name in namespace, tolerating it already
// being gone.
func deleteByName(ctx context.Context, c client.Client, obj client.Object, namespace, name string) error {
	obj.SetName(name)
	obj.SetNamespace(namespace)
	if err := c.Delete(ctx, obj); err != nil && !errs.IsNotFound(err) {
		return err
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
