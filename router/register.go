package router

import "github.com/arkflow-dev/gozeebe/task"

// Task builds a task with task.New and registers it on r in one step.
// Go methods can't carry their own type parameters, so registration is
// a package-level generic function rather than a Router method.
func Task[TIn, TOut any](r *Router, jobType string, handler task.Handler[TIn, TOut], opts ...task.Option) (*task.Task, error) {
	t, err := task.New[TIn, TOut](jobType, handler, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.AddTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskWithController is Task for handlers that take the JobController
// directly.
func TaskWithController[TIn, TOut any](r *Router, jobType string, handler task.HandlerWithController[TIn, TOut], opts ...task.Option) (*task.Task, error) {
	t, err := task.NewWithController[TIn, TOut](jobType, handler, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.AddTask(t); err != nil {
		return nil, err
	}
	return t, nil
}
