// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifications counts derived attendance statuses.
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_classifications_total",
		Help: "Attendance statuses derived from records.",
	}, []string{"status"})

	// Punctuality counts derived on-time labels.
	Punctuality = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_punctuality_total",
		Help: "Punctuality labels derived from check-in times.",
	}, []string{"label"})

	// BackendDuration observes calls to the attendance backend.
	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendview_backend_request_duration_seconds",
		Help:    "Latency of attendance backend requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "code"})

	// CheckinSteps counts check-in flow step outcomes.
	CheckinSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_checkin_steps_total",
		Help: "Check-in flow step outcomes.",
	}, []string{"step", "outcome"})

	// ReportCache counts daily report cache lookups.
	ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_report_cache_total",
		Help: "Daily report cache lookups by result.",
	}, []string{"result"})

	// BoardApplied counts board fetches that were applied or discarded as stale.
	BoardApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_board_fetches_total",
		Help: "Board fetch results by outcome.",
	}, []string{"outcome"})

	// RefreshJobs counts background jobs handled by the refresh worker.
	RefreshJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendview_refresh_jobs_total",
		Help: "Background refresh jobs by type and outcome.",
	}, []string{"type", "outcome"})
)
