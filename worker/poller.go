package worker

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/gateway"
	"github.com/arkflow-dev/gozeebe/internal/backoff"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/metrics"
	"github.com/arkflow-dev/gozeebe/task"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// activator is the slice of Gateway a poller needs. *gateway.Adapter
// satisfies it; gatewaytest.Gateway does too.
type activator interface {
	ActivateJobs(ctx context.Context, opts gateway.ActivateJobsOptions) (gateway.JobStream, error)
}

// poller runs the Idle→Polling→Delivering→Idle loop for one task,
// with an Error→Backoff→Polling sink for transient adapter failures.
// One poller per task; it owns no state any executor touches except
// the channel itself.
type poller struct {
	gw             activator
	task           *task.Task
	workerName     string
	requestTimeout time.Duration
	tenantIDs      []string
	out            chan<- *job.Job
	logger         *zap.Logger
	policy         backoff.Policy
	metrics        metrics.Sink
}

// run blocks until ctx is cancelled (returns nil) or a non-retryable
// adapter error is encountered (returned to the caller, which the
// supervisor treats as this task's poller dying).
func (p *poller) run(ctx context.Context) error {
	policy := p.policy
	if policy.Initial == 0 {
		policy = backoff.Default
	}
	seq := backoff.NewSequence(policy)
	for {
		if ctx.Err() != nil {
			return nil
		}

		err := p.pollOnce(ctx)
		if err == nil {
			// Stream ended cleanly (io.EOF): normal end of one long-poll
			// round. Self-loop immediately, no backoff.
			seq.Reset()
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// The request_timeout we set on the stream's context elapsed,
			// same as an empty round — not a failure.
			seq.Reset()
			continue
		}
		translated := zberrors.FromStatus(err)
		if !zberrors.Retryable(translated) {
			return translated
		}
		p.logger.Warn("job stream ended with retryable error, backing off", zap.Error(translated))
		delay := seq.Next()
		p.metrics.ObservePollBackoff(p.task.Config.Type, delay)
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

// pollOnce opens one ActivateJobs call bounded by requestTimeout — the
// deadline spans the whole long-poll, not just the initial handshake —
// and drains it into p.out until it ends. Returns nil for a clean end
// of round (io.EOF or the request_timeout elapsing); any other error is
// the caller's to classify.
func (p *poller) pollOnce(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	stream, err := p.gw.ActivateJobs(reqCtx, gateway.ActivateJobsOptions{
		Type:              p.task.Config.Type,
		WorkerName:        p.workerName,
		Timeout:           p.task.Config.Timeout,
		MaxJobsToActivate: p.task.Config.MaxJobsToActivate,
		VariablesToFetch:  p.task.Config.VariablesToFetch,
		RequestTimeout:    p.requestTimeout,
		TenantIDs:         p.tenantIDs,
	})
	if err != nil {
		return err
	}

	for {
		j, err := stream.Recv()
		if err != nil {
			if isEOF(err) || (errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil) {
				return nil
			}
			return err
		}
		select {
		case p.out <- j:
			p.metrics.JobsActivated(p.task.Config.Type, 1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
