package worker

import (
	"github.com/arkflow-dev/gozeebe/router"
	"github.com/arkflow-dev/gozeebe/task"
)

// Task registers a handler on w's embedded registry. A thin pass-
// through to router.Task, kept here so callers write worker.Task(w, ...)
// instead of reaching into w.Router — Go methods can't carry their own
// type parameters, so this has to be a package-level function either
// way.
func Task[TIn, TOut any](w *Worker, jobType string, handler task.Handler[TIn, TOut], opts ...task.Option) (*task.Task, error) {
	return router.Task(w.Router, jobType, handler, opts...)
}

// TaskWithController is Task for handlers that take the JobController
// directly.
func TaskWithController[TIn, TOut any](w *Worker, jobType string, handler task.HandlerWithController[TIn, TOut], opts ...task.Option) (*task.Task, error) {
	return router.TaskWithController(w.Router, jobType, handler, opts...)
}
