// Copyright Contributors to the KubeOpenCode project

// Package metrics registers the operator's custom Prometheus collectors
// against controller-runtime's metrics registry, so they are served
// alongside the manager's built-in controller-runtime metrics on the same
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// ReconcileTotal counts reconciles per run kind and outcome.
	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agents_platform_reconcile_total",
		Help: "Total reconciles per run kind and resulting phase.",
	}, []string{"kind", "phase"})

	// JobsCreatedTotal counts Jobs the builder has materialized.
	JobsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agents_platform_jobs_created_total",
		Help: "Total Jobs created by the operator, per run kind.",
	}, []string{"kind"})

	// ReconcileDuration observes reconcile latency per run kind.
	ReconcileDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agents_platform_reconcile_duration_seconds",
		Help:    "Reconcile duration in seconds, per run kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

func init() {
	ctrlmetrics.Registry.MustRegister(ReconcileTotal, JobsCreatedTotal, ReconcileDuration)
}
