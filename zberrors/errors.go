// Package zberrors defines the domain error taxonomy returned by the
// gateway adapter and surfaced to worker and client callers.
//
// Every RPC the adapter makes is translated, via FromStatus, into one of
// the typed errors below. Retryable classifies the split the poller and
// the connection-retry counter both rely on: BackPressureError,
// UnavailableError, InternalError, and DeadlineError are retryable;
// everything else is not.
package zberrors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrAlreadyTerminated is returned when a second terminal operation is
// attempted on a JobController that has already completed, failed,
// thrown an error, or been cancelled.
var ErrAlreadyTerminated = errors.New("zbc: job already terminated")

// ErrWorkerStopped is returned by Worker.Work on any call after the
// first, whether the first is still running, has returned, or was
// stopped. Workers are single-shot: construct a new one to run again.
var ErrWorkerStopped = errors.New("zbc: worker already stopped")

// ErrQueueFull reports that a task's bounded channel has no capacity.
// The poller in package worker does not return it: its enqueue blocks
// until capacity frees.
var ErrQueueFull = errors.New("zbc: task queue full")

// NotFoundError indicates the referenced process definition, process
// instance, or job does not exist.
type NotFoundError struct{ Entity string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("zbc: %s not found", e.Entity) }

// InvalidStateError indicates the gateway rejected the request because
// of the current state of the process (e.g. no start event, invalid
// BPMN).
type InvalidStateError struct{ Reason string }

func (e *InvalidStateError) Error() string { return fmt.Sprintf("zbc: invalid state: %s", e.Reason) }

// AlreadyExistsError indicates a duplicate: a message id collision or a
// job that has already been completed.
type AlreadyExistsError struct{ Entity string }

func (e *AlreadyExistsError) Error() string { return fmt.Sprintf("zbc: %s already exists", e.Entity) }

// BackPressureError indicates the gateway is overloaded. Retryable after
// backoff.
type BackPressureError struct{}

func (e *BackPressureError) Error() string { return "zbc: gateway back pressure" }

// UnavailableError indicates the gateway is unreachable or a precondition
// failed. Retryable.
type UnavailableError struct{ Reason string }

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return "zbc: gateway unavailable"
	}
	return fmt.Sprintf("zbc: gateway unavailable: %s", e.Reason)
}

// InternalError indicates an unknown server-side fault. Retryable with
// jitter.
type InternalError struct{ Reason string }

func (e *InternalError) Error() string { return fmt.Sprintf("zbc: internal error: %s", e.Reason) }

// InvalidPayloadError indicates variables were not JSON-encodable, caught
// before the request left the process.
type InvalidPayloadError struct{ Field string }

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("zbc: invalid payload: %s", e.Field)
}

// DeadlineError indicates the RPC deadline was exceeded. Retryable.
type DeadlineError struct{}

func (e *DeadlineError) Error() string { return "zbc: rpc deadline exceeded" }

// CancelledError indicates local cancellation of the RPC context.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "zbc: rpc cancelled" }

// Retryable reports whether err represents a transient condition worth
// retrying: BackPressure, Unavailable, Internal, and Deadline are
// retryable; NotFound, InvalidState, AlreadyExists, and InvalidPayload
// are not.
func Retryable(err error) bool {
	var (
		bp  *BackPressureError
		un  *UnavailableError
		in  *InternalError
		dl  *DeadlineError
	)
	switch {
	case errors.As(err, &bp), errors.As(err, &un), errors.As(err, &in), errors.As(err, &dl):
		return true
	default:
		return false
	}
}

// FromStatus maps a gRPC error (typically from a gateway RPC call) to the
// domain taxonomy above. Non-gRPC errors and nil pass through unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return &NotFoundError{Entity: st.Message()}
	case codes.FailedPrecondition:
		return &InvalidStateError{Reason: st.Message()}
	case codes.AlreadyExists:
		return &AlreadyExistsError{Entity: st.Message()}
	case codes.ResourceExhausted:
		return &BackPressureError{}
	case codes.Unavailable:
		return &UnavailableError{Reason: st.Message()}
	case codes.InvalidArgument:
		return &InvalidPayloadError{Field: st.Message()}
	case codes.DeadlineExceeded:
		return &DeadlineError{}
	case codes.Canceled:
		return &CancelledError{}
	case codes.Internal, codes.Unknown, codes.Unimplemented, codes.DataLoss:
		return &InternalError{Reason: st.Message()}
	default:
		return &InternalError{Reason: st.Message()}
	}
}
