package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/job"
)

// ExceptionHandler resolves a non-BusinessError handler failure into a
// terminal outcome via controller. It is never invoked for a timeout
// (the executor skips terminal reporting entirely in that case) or for
// a BusinessError (routed straight to controller.SetErrorStatus).
type ExceptionHandler func(ctx context.Context, err error, j *job.Job, controller *job.Controller)

// DefaultExceptionHandler logs a warning and calls
// controller.SetFailureStatus(err.Error()), leaving retries untouched.
// Used whenever a task, its router, and the worker all leave
// ExceptionHandler unset.
func DefaultExceptionHandler(logger *zap.Logger) ExceptionHandler {
	logger = logger.Named("task")
	return func(ctx context.Context, err error, j *job.Job, controller *job.Controller) {
		logger.Warn("job failed with unhandled exception",
			zap.Int64("job_key", j.Key),
			zap.String("job_type", j.Type),
			zap.Error(err),
		)
		if ferr := controller.SetFailureStatus(ctx, err.Error()); ferr != nil {
			logger.Error("failed to report job failure",
				zap.Int64("job_key", j.Key),
				zap.Error(ferr),
			)
		}
	}
}
