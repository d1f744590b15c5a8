// Package task defines the immutable binding between a job type, a
// typed handler, and the decorator/exception-handler chain invoked
// around it. A Task is built once by New or NewWithController and
// never mutated afterwards; Router and Worker compose tasks by
// prepending their own chains onto a task's at inclusion/work time,
// never by reaching into an existing Task.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// Handler is a job handler that does not need direct access to the
// JobController — its return value and error alone determine the
// outcome. TIn is the decoded variable mapping (or bare value, for a
// single-value task); TOut is marshaled to the job's output variables.
type Handler[TIn, TOut any] func(ctx context.Context, j *job.Job, variables TIn) (TOut, error)

// HandlerWithController is a job handler that reports its own terminal
// outcome (e.g. to defer completion, or report partial progress) rather
// than letting Task do it from the return value. Its TOut and error are
// still honored the same way New's handler's are, for the common case
// where it simply returns rather than calling controller itself.
type HandlerWithController[TIn, TOut any] func(ctx context.Context, j *job.Job, controller *job.Controller, variables TIn) (TOut, error)

// Task is an immutable binding of a job type to a handler, built by New
// or NewWithController. Chains (before/after/exception handler) start
// empty and are populated only by a Router's registration methods or by
// IncludeRouter/worker merge at inclusion time — never by mutating a
// Task that has already been handed to a Router.
type Task struct {
	Config Config

	before           []Decorator
	after            []Decorator
	exceptionHandler ExceptionHandler
	logger           *zap.Logger

	decode func(j *job.Job) (any, error)
	invoke func(ctx context.Context, j *job.Job, controller *job.Controller, decoded any) (map[string]any, error)
}

// New builds a Task around handler. If no WithVariablesToFetch or
// WithSingleValue option supplies variables_to_fetch, it is derived from
// TIn's exported field names (json tag, or field name) in declaration
// order — the statically-typed stand-in for the parameter-name
// introspection pyzeebe performs at registration time.
func New[TIn, TOut any](jobType string, handler Handler[TIn, TOut], opts ...Option) (*Task, error) {
	return build[TIn, TOut](jobType, opts, func(ctx context.Context, j *job.Job, _ *job.Controller, decoded any) (map[string]any, error) {
		out, err := handler(ctx, j, decoded.(TIn))
		if err != nil {
			return nil, err
		}
		return encodeOutput(out)
	})
}

// NewWithController builds a Task whose handler receives the
// JobController directly, for handlers that need to report a custom
// outcome mid-flight. Its ordinary return path (nil error, non-nil
// TOut) is still routed through SetSuccessStatus exactly like New.
func NewWithController[TIn, TOut any](jobType string, handler HandlerWithController[TIn, TOut], opts ...Option) (*Task, error) {
	return build[TIn, TOut](jobType, opts, func(ctx context.Context, j *job.Job, controller *job.Controller, decoded any) (map[string]any, error) {
		out, err := handler(ctx, j, controller, decoded.(TIn))
		if err != nil {
			return nil, err
		}
		return encodeOutput(out)
	})
}

func build[TIn, TOut any](jobType string, opts []Option, invoke func(context.Context, *job.Job, *job.Controller, any) (map[string]any, error)) (*Task, error) {
	cfg := Config{Type: jobType}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()

	if len(cfg.VariablesToFetch) == 0 {
		if cfg.SingleValue {
			cfg.VariablesToFetch = []string{cfg.VariableName}
		} else {
			names, err := deriveVariables(reflect.TypeFor[TIn]())
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", jobType, err)
			}
			cfg.VariablesToFetch = names
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Task{
		Config:           cfg,
		exceptionHandler: cfg.ExceptionHandler,
		logger:           zap.NewNop(),
		invoke:           invoke,
	}
	t.decode = func(j *job.Job) (any, error) {
		return decodeVariables[TIn](cfg, j)
	}
	return t, nil
}

func decodeVariables[TIn any](cfg Config, j *job.Job) (TIn, error) {
	var v TIn
	if cfg.SingleValue {
		raw := map[string]json.RawMessage{}
		if len(j.Variables) > 0 {
			if err := json.Unmarshal(j.Variables, &raw); err != nil {
				return v, fmt.Errorf("decode variables: %w", err)
			}
		}
		val, ok := raw[cfg.VariableName]
		if !ok {
			return v, fmt.Errorf("decode variables: missing %q", cfg.VariableName)
		}
		if err := json.Unmarshal(val, &v); err != nil {
			return v, fmt.Errorf("decode variable %q: %w", cfg.VariableName, err)
		}
		return v, nil
	}
	if err := j.Decode(&v); err != nil {
		return v, fmt.Errorf("decode variables: %w", err)
	}
	return v, nil
}

func encodeOutput(out any) (map[string]any, error) {
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode output variables: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode output variables: output must marshal to a JSON object: %w", err)
	}
	return m, nil
}

// Clone returns a copy of t with independent before/after slices, so the
// caller can extend the copy's chains without affecting t. Config,
// decode, and invoke are shared (immutable after New/NewWithController
// return). Used by Router/Worker when merging a task's chains at
// inclusion time — Router and Worker are value-like, never mutating a
// Task already handed to another registry.
func (t *Task) Clone() *Task {
	return &Task{
		Config:           t.Config,
		before:           append([]Decorator{}, t.before...),
		after:            append([]Decorator{}, t.after...),
		exceptionHandler: t.exceptionHandler,
		logger:           t.logger,
		decode:           t.decode,
		invoke:           t.invoke,
	}
}

// SetLogger installs the logger used for best-effort decorator failures
// and unhandled-exception reporting. Called by Router/Worker when they
// merge a task into their tree; not part of the Option set because it
// isn't a per-registration choice.
func (t *Task) SetLogger(logger *zap.Logger) { t.logger = logger.Named("task").With(zap.String("job_type", t.Config.Type)) }

// PrependBefore/AppendAfter/SetFallbackExceptionHandler implement
// inheritance-at-inclusion-time: a Router or Worker calls these once,
// when the task is included, to splice its own chain around what the
// task already carries.

// PrependBefore splices decorators ahead of t's existing before-chain.
func (t *Task) PrependBefore(decorators ...Decorator) {
	t.before = append(append([]Decorator{}, decorators...), t.before...)
}

// AppendAfter splices decorators after t's existing after-chain.
func (t *Task) AppendAfter(decorators ...Decorator) {
	t.after = append(t.after, decorators...)
}

// SetFallbackExceptionHandler installs h as t's exception handler only
// if the task doesn't already have one of its own — a task-level
// WithExceptionHandler always wins over anything inherited from a
// router or worker.
func (t *Task) SetFallbackExceptionHandler(h ExceptionHandler) {
	if t.exceptionHandler == nil {
		t.exceptionHandler = h
	}
}

func (t *Task) resolveExceptionHandler() ExceptionHandler {
	if t.exceptionHandler != nil {
		return t.exceptionHandler
	}
	return DefaultExceptionHandler(t.logger)
}

// JobHandler is the single entry point the executor invokes for one
// activation: decode, before-chain, invoke, outcome routing, after-chain.
// It never panics on a handler error — every path routes to exactly
// one of CompleteJob/FailJob/ThrowError, or to neither on a deadline
// expiry.
func (t *Task) JobHandler(ctx context.Context, j *job.Job, controller *job.Controller) {
	// reportCtx carries ctx's values but never its cancellation/deadline:
	// the final status RPC must land even if the handler's deadline guard
	// just fired the cancellation that unblocked us, so the gateway sees
	// a consistent outcome instead of losing the report to a context
	// error.
	reportCtx := context.WithoutCancel(ctx)

	decoded, err := t.decode(j)
	if err != nil {
		t.resolveExceptionHandler()(reportCtx, &zberrors.InvalidPayloadError{Field: err.Error()}, j, controller)
		return
	}

	working := t.runChain(ctx, t.before, j)

	result, err := t.invoke(ctx, working, controller, decoded)

	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		// Local deadline guard expired: the gateway will redeliver this
		// job elsewhere. Reporting any terminal outcome here would race
		// the redelivery, so we deliberately report nothing.
	case err == nil:
		if serr := controller.SetSuccessStatus(reportCtx, result); serr != nil && !errors.Is(serr, zberrors.ErrAlreadyTerminated) {
			t.logger.Error("failed to report job success", zap.Int64("job_key", j.Key), zap.Error(serr))
		}
	default:
		var bizErr *BusinessError
		if errors.As(err, &bizErr) {
			if serr := controller.SetErrorStatus(reportCtx, bizErr.Message, bizErr.Code); serr != nil && !errors.Is(serr, zberrors.ErrAlreadyTerminated) {
				t.logger.Error("failed to report business error", zap.Int64("job_key", j.Key), zap.Error(serr))
			}
		} else {
			t.resolveExceptionHandler()(reportCtx, err, working, controller)
		}
	}

	t.runChain(ctx, t.after, working)
}

// runChain applies decorators in order, logging and discarding any
// error a decorator returns — a failing decorator never changes the
// job's outcome.
func (t *Task) runChain(ctx context.Context, chain []Decorator, j *job.Job) *job.Job {
	for _, d := range chain {
		next, err := d.Apply(ctx, j)
		if err != nil {
			t.logger.Warn("decorator failed, continuing with prior job state",
				zap.Int64("job_key", j.Key),
				zap.Error(err),
			)
			continue
		}
		j = next
	}
	return j
}
