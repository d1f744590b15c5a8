package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/arkflow-dev/gozeebe/zberrors"
)

// Reporter is the narrow slice of the gateway adapter a Controller needs
// to terminate a job. gateway.Adapter satisfies it; tests substitute a
// fake.
type Reporter interface {
	CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error
	FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error
	ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error
}

// Controller is the mutable collaborator tied to one Job, used by
// handlers and the executor to report its terminal outcome. At most one
// of its four terminal operations may succeed per job; subsequent calls
// return zberrors.ErrAlreadyTerminated.
type Controller struct {
	reporter Reporter
	key      int64
	retries  int32

	mu         sync.Mutex
	terminated bool
}

// NewController builds a Controller for the given job, bound to reporter
// for the terminal RPCs.
func NewController(reporter Reporter, j *Job) *Controller {
	return &Controller{reporter: reporter, key: j.Key, retries: j.Retries}
}

func (c *Controller) terminate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminated {
		return zberrors.ErrAlreadyTerminated
	}
	c.terminated = true
	return nil
}

// Terminated reports whether a terminal operation has already succeeded
// for this job.
func (c *Controller) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// SetSuccessStatus reports the job complete with the given output
// variables.
func (c *Controller) SetSuccessStatus(ctx context.Context, variables map[string]any) error {
	if err := c.terminate(); err != nil {
		return err
	}
	raw, err := encodeVariables(variables)
	if err != nil {
		return fmt.Errorf("job: encode success variables: %w", err)
	}
	return c.reporter.CompleteJob(ctx, c.key, raw)
}

// FailureOption customizes SetFailureStatus.
type FailureOption func(*failureOptions)

type failureOptions struct {
	retries      int32
	retryBackoff time.Duration
	hasRetries   bool
}

// WithRetries overrides the retries value reported to the gateway.
// Without this option the job's own Retries (unchanged — the gateway
// decrements per its own policy) is reported.
func WithRetries(retries int32) FailureOption {
	return func(o *failureOptions) { o.retries = retries; o.hasRetries = true }
}

// WithRetryBackoff sets how long the gateway should wait before
// redelivering the job.
func WithRetryBackoff(d time.Duration) FailureOption {
	return func(o *failureOptions) { o.retryBackoff = d }
}

// SetFailureStatus reports the job failed with message, optionally
// overriding retries/backoff. This is what the default exception handler
// calls for any non-BusinessError.
func (c *Controller) SetFailureStatus(ctx context.Context, message string, opts ...FailureOption) error {
	if err := c.terminate(); err != nil {
		return err
	}
	fo := failureOptions{retries: c.retries}
	for _, opt := range opts {
		opt(&fo)
	}
	return c.reporter.FailJob(ctx, c.key, fo.retries, message, fo.retryBackoff, nil)
}

// SetErrorStatus reports a BusinessError outcome: throw_error with the
// carried error code, routed by the gateway back into the process
// instead of treated as a worker failure.
func (c *Controller) SetErrorStatus(ctx context.Context, message, errorCode string) error {
	if err := c.terminate(); err != nil {
		return err
	}
	return c.reporter.ThrowError(ctx, c.key, errorCode, message, nil)
}

// SetCancelStatus reports the job as abandoned with retries forced to 0,
// so the gateway does not redeliver it. Rarely used.
func (c *Controller) SetCancelStatus(ctx context.Context) error {
	if err := c.terminate(); err != nil {
		return err
	}
	return c.reporter.FailJob(ctx, c.key, 0, "cancelled by worker", 0, nil)
}

func encodeVariables(variables map[string]any) (json.RawMessage, error) {
	if variables == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(variables)
}
