// Package worker implements the poller/executor pipeline and the
// supervisor that owns both: a Worker embeds a *router.Router (its
// task registry), spawning one poller and one max_running_jobs-sized
// executor pool per task when Work is called.
package worker

import (
	"time"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/gateway"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/metrics"
	"github.com/arkflow-dev/gozeebe/router"
)

// Gateway is everything a Worker needs from the transport layer:
// activating job streams and reporting their terminal outcome.
// *gateway.Adapter satisfies it; gatewaytest.Gateway substitutes for
// tests.
type Gateway interface {
	activator
	job.Reporter
}

var _ Gateway = (*gateway.Adapter)(nil)

// DefaultRequestTimeout bounds each ActivateJobs long-poll round when
// no WithRequestTimeout option overrides it.
const DefaultRequestTimeout = 10 * time.Second

// Worker is the supervisor that owns every task's poller and executor
// pool. It embeds *router.Router, so callers register tasks and set
// worker-level before/after/exception-handler chains directly on it
// (or via the
// Task/TaskWithController functions in this package); those chains are
// merged into every task's own chain once, when Work flattens the
// registry. Workers are single-shot: construct a new one to run again
// after Stop.
type Worker struct {
	*router.Router

	gw             Gateway
	name           string
	requestTimeout time.Duration
	tenantIDs      []string
	pollRetryDelay time.Duration
	logger         *zap.Logger
	metrics        metrics.Sink

	state workerState
}

// Option customizes a Worker at construction time.
type Option func(*Worker)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(w *Worker) { w.requestTimeout = d }
}

// WithTenantIDs scopes every task's activation requests to the given
// tenants.
func WithTenantIDs(ids ...string) Option {
	return func(w *Worker) { w.tenantIDs = ids }
}

// WithPollRetryDelay overrides the initial backoff delay pollers use
// after a retryable adapter error (default: internal/backoff.Default's
// 100ms).
func WithPollRetryDelay(d time.Duration) Option {
	return func(w *Worker) { w.pollRetryDelay = d }
}

// WithMetrics reports activation/completion counts, in-flight gauges,
// and poll backoff timings to sink. Defaults to metrics.NopSink{}.
func WithMetrics(sink metrics.Sink) Option {
	return func(w *Worker) { w.metrics = sink }
}

// New builds a Worker named name, talking to gw.
func New(gw Gateway, name string, logger *zap.Logger, opts ...Option) *Worker {
	w := &Worker{
		Router:         router.New(logger),
		gw:             gw,
		name:           name,
		requestTimeout: DefaultRequestTimeout,
		logger:         logger.Named("worker"),
		metrics:        metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}
