package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Job metrics
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stowsched_jobs_total",
			Help: "Total number of jobs by type and status",
		},
		[]string{"type", "status"},
	)

	JobsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_jobs_created_total",
			Help: "Total number of jobs created by type",
		},
		[]string{"type"},
	)

	JobsCancelledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_jobs_cancelled_total",
			Help: "Total number of jobs cancelled by type",
		},
		[]string{"type"},
	)

	JobsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_jobs_rejected_total",
			Help: "Total number of candidates rejected by reason",
		},
		[]string{"type", "reason"},
	)

	// Resource table metrics
	ResourceOccupancy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stowsched_resource_occupancy_percent",
			Help: "Percent of a resource key currently held by jobs",
		},
		[]string{"resource_type"},
	)

	// Admission metrics
	AdmissionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stowsched_admission_latency_seconds",
			Help:    "Time taken to admit a batch of candidates in CreateJobs",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatesConsidered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_candidates_considered_total",
			Help: "Total number of candidates offered to the scheduler by starter",
		},
		[]string{"starter"},
	)

	// Starter run metrics
	StarterRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_starter_runs_total",
			Help: "Total number of starter runs by name and outcome",
		},
		[]string{"starter", "outcome"},
	)

	StarterRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stowsched_starter_run_duration_seconds",
			Help:    "Duration of one starter run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"starter"},
	)

	// Historic-state store metrics
	HistorySyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stowsched_history_sync_duration_seconds",
			Help:    "Duration of a historic-state store Sync() call",
			Buckets: prometheus.DefBuckets,
		},
	)

	HistoryRecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stowsched_history_records_total",
			Help: "Number of couples tracked in the historic-state store",
		},
	)

	// Lock metrics
	LockContentionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stowsched_lock_contention_total",
			Help: "Total number of non-blocking lock acquisitions that found the lock already held",
		},
		[]string{"lock"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(JobsCreatedTotal)
	prometheus.MustRegister(JobsCancelledTotal)
	prometheus.MustRegister(JobsRejectedTotal)
	prometheus.MustRegister(ResourceOccupancy)
	prometheus.MustRegister(AdmissionLatency)
	prometheus.MustRegister(CandidatesConsidered)
	prometheus.MustRegister(StarterRunsTotal)
	prometheus.MustRegister(StarterRunDuration)
	prometheus.MustRegister(HistorySyncDuration)
	prometheus.MustRegister(HistoryRecordsTotal)
	prometheus.MustRegister(LockContentionTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
