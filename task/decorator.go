package task

import (
	"context"

	"github.com/arkflow-dev/gozeebe/job"
)

// Decorator mutates a Job before or after handler invocation. A decorator
// that returns an error is logged at warning and the job continues with
// its pre-decorator state — decorators never change a job's terminal
// outcome.
type Decorator interface {
	Apply(ctx context.Context, j *job.Job) (*job.Job, error)
}

// DecoratorFunc adapts a plain function to Decorator.
type DecoratorFunc func(ctx context.Context, j *job.Job) (*job.Job, error)

// Apply implements Decorator.
func (f DecoratorFunc) Apply(ctx context.Context, j *job.Job) (*job.Job, error) {
	return f(ctx, j)
}
