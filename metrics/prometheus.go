package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink is the stock Sink: one counter vector per terminal
// outcome, a gauge vector for in-flight jobs, and a histogram vector
// for poll backoff delays, all labeled by job type.
type PrometheusSink struct {
	activated   *prometheus.CounterVec
	completed   *prometheus.CounterVec
	failed      *prometheus.CounterVec
	thrown      *prometheus.CounterVec
	inFlight    *prometheus.GaugeVec
	pollBackoff *prometheus.HistogramVec
}

// NewPrometheusSink builds a PrometheusSink and registers its
// collectors against reg. Pass prometheus.DefaultRegisterer to expose
// metrics on the process-wide /metrics endpoint, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions between
// Workers created in the same process.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		activated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zbworker_jobs_activated_total",
			Help: "Total number of jobs activated from the gateway, by job type.",
		}, []string{"job_type"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zbworker_jobs_completed_total",
			Help: "Total number of jobs completed successfully, by job type.",
		}, []string{"job_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zbworker_jobs_failed_total",
			Help: "Total number of jobs reported as failed, by job type.",
		}, []string{"job_type"}),
		thrown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zbworker_jobs_thrown_total",
			Help: "Total number of jobs that threw a business error, by job type.",
		}, []string{"job_type"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zbworker_jobs_in_flight",
			Help: "Number of jobs currently being handled by an executor pool, by job type.",
		}, []string{"job_type"}),
		pollBackoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zbworker_poll_backoff_seconds",
			Help:    "Delay a poller slept after a retryable adapter error, by job type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job_type"}),
	}
	reg.MustRegister(s.activated, s.completed, s.failed, s.thrown, s.inFlight, s.pollBackoff)
	return s
}

func (s *PrometheusSink) JobsActivated(jobType string, n int) {
	s.activated.WithLabelValues(jobType).Add(float64(n))
}

func (s *PrometheusSink) JobCompleted(jobType string) {
	s.completed.WithLabelValues(jobType).Inc()
}

func (s *PrometheusSink) JobFailed(jobType string) {
	s.failed.WithLabelValues(jobType).Inc()
}

func (s *PrometheusSink) JobThrown(jobType string) {
	s.thrown.WithLabelValues(jobType).Inc()
}

func (s *PrometheusSink) SetInFlight(jobType string, n int) {
	s.inFlight.WithLabelValues(jobType).Set(float64(n))
}

func (s *PrometheusSink) ObservePollBackoff(jobType string, d time.Duration) {
	s.pollBackoff.WithLabelValues(jobType).Observe(d.Seconds())
}

var _ Sink = (*PrometheusSink)(nil)
