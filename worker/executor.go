package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/metrics"
	"github.com/arkflow-dev/gozeebe/task"
)

// executorPool runs exactly task.Config.MaxRunningJobs goroutines
// consuming from in, each calling task.JobHandler for one job at a
// time. The channel's own capacity is what actually enforces the
// back-pressure ceiling; the pool just bounds concurrent invocations
// to match it.
type executorPool struct {
	task     *task.Task
	reporter job.Reporter
	in       <-chan *job.Job
	logger   *zap.Logger
	metrics  metrics.Sink

	inFlight atomic.Int32
}

// run services in until it's closed or ctx is cancelled. Matches
// poller.run's (context.Context) error shape for errgroup.Go.
func (e *executorPool) run(ctx context.Context) error {
	for {
		select {
		case j, ok := <-e.in:
			if !ok {
				return nil
			}
			e.execute(ctx, j)
		case <-ctx.Done():
			return nil
		}
	}
}

// execute runs the full per-job pipeline under a deadline guard:
// min(job.Deadline, now+task.Timeout). ctx cancellation (e.g.
// force-stop) also bounds the handler, but never the terminal status
// report — see task.Task.JobHandler's use of context.WithoutCancel.
func (e *executorPool) execute(ctx context.Context, j *job.Job) {
	n := e.inFlight.Add(1)
	e.metrics.SetInFlight(e.task.Config.Type, int(n))
	defer func() {
		n := e.inFlight.Add(-1)
		e.metrics.SetInFlight(e.task.Config.Type, int(n))
	}()

	controller := job.NewController(&observingReporter{Reporter: e.reporter, jobType: e.task.Config.Type, sink: e.metrics}, j)

	deadline := j.Deadline
	if localGuard := time.Now().Add(e.task.Config.Timeout); localGuard.Before(deadline) {
		deadline = localGuard
	}
	jobCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	e.task.JobHandler(jobCtx, j, controller)
}

// observingReporter wraps a job.Reporter to record which terminal
// outcome a job reached, without task.Task needing to know metrics
// exist at all.
type observingReporter struct {
	job.Reporter
	jobType string
	sink    metrics.Sink
}

func (r *observingReporter) CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error {
	err := r.Reporter.CompleteJob(ctx, key, variables)
	if err == nil {
		r.sink.JobCompleted(r.jobType)
	}
	return err
}

func (r *observingReporter) FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error {
	err := r.Reporter.FailJob(ctx, key, retries, message, retryBackoff, variables)
	if err == nil {
		r.sink.JobFailed(r.jobType)
	}
	return err
}

func (r *observingReporter) ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error {
	err := r.Reporter.ThrowError(ctx, key, errorCode, message, variables)
	if err == nil {
		r.sink.JobThrown(r.jobType)
	}
	return err
}
