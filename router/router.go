// Package router implements the task registry: a mutable, keyed
// collection of task.Task values, composable via nested routers, that
// holds the default decorator chain and exception handler tasks
// registered through it inherit.
//
// Two inheritance rules, deliberately different, are the whole of this
// package's subtlety:
//
//   - exception handler inheritance happens at registration time: a
//     task registered via Task/TaskWithController picks up the
//     registry's *current* exception handler if it didn't set its own.
//     A task still without one when its registry is included or
//     flattened takes the registry's handler as of that moment.
//   - decorator inheritance happens at inclusion time: a registry's
//     before/after chains are merged into a task's chains only when
//     that task's registry is included into another (IncludeRouter) or
//     flattened by a Worker — using the registry's chain contents *at
//     that moment*, so decorators added between two IncludeRouter calls
//     only affect tasks included afterward.
package router

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/task"
)

// Router is an ordered, keyed collection of tasks. The zero value is
// not usable; construct with New.
type Router struct {
	mu     sync.Mutex
	tasks  map[string]*task.Task
	order  []string
	before []task.Decorator
	after  []task.Decorator

	exceptionHandler task.ExceptionHandler
	logger           *zap.Logger
}

// New builds an empty Router.
func New(logger *zap.Logger) *Router {
	return &Router{
		tasks:  map[string]*task.Task{},
		logger: logger.Named("router"),
	}
}

// Before appends decorators to the registry's before-chain. Returns r
// for chaining.
func (r *Router) Before(decorators ...task.Decorator) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before = append(r.before, decorators...)
	return r
}

// After appends decorators to the registry's after-chain. Returns r for
// chaining.
func (r *Router) After(decorators ...task.Decorator) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = append(r.after, decorators...)
	return r
}

// ExceptionHandler sets the registry's default exception handler,
// inherited (at registration time) by any task subsequently added
// through AddTask/Task/TaskWithController that doesn't set its own.
// Returns r for chaining.
func (r *Router) ExceptionHandler(h task.ExceptionHandler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptionHandler = h
	return r
}

// AddTask registers t on the registry. Fails with DuplicateTaskTypeError
// if t.Config.Type is already registered. If t has no exception handler
// of its own, it inherits the registry's current one.
func (r *Router) AddTask(t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[t.Config.Type]; exists {
		return &DuplicateTaskTypeError{Type: t.Config.Type}
	}
	t.SetFallbackExceptionHandler(r.exceptionHandler)
	t.SetLogger(r.logger)
	r.tasks[t.Config.Type] = t
	r.order = append(r.order, t.Config.Type)
	return nil
}

// RemoveTask removes and returns the task registered for jobType.
// Fails with TaskNotFoundError if absent.
func (r *Router) RemoveTask(jobType string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[jobType]
	if !ok {
		return nil, &TaskNotFoundError{Type: jobType}
	}
	delete(r.tasks, jobType)
	for i, jt := range r.order {
		if jt == jobType {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return t, nil
}

// GetTask returns the task registered for jobType. Fails with
// TaskNotFoundError if absent.
func (r *Router) GetTask(jobType string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[jobType]
	if !ok {
		return nil, &TaskNotFoundError{Type: jobType}
	}
	return t, nil
}

// Tasks returns a snapshot, in registration order, of every task
// currently on the registry — with none of the registry's own
// before/after chains applied (those merge in only at IncludeRouter or
// Flatten time).
func (r *Router) Tasks() []*task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*task.Task, 0, len(r.order))
	for _, jt := range r.order {
		out = append(out, r.tasks[jt])
	}
	return out
}

// IncludeRouter merges child's tasks into r: each of child's tasks is
// cloned, child's current before/after chains are merged into the
// clone (innermost), then r's current before/after chains are merged
// on top (outermost), and the result replaces any entry r might later
// look up by that job type. child is left untouched — registries are
// value-like, so it remains independently usable (and includable
// elsewhere) after this call. Fails with DuplicateTaskTypeError without
// registering anything if any of child's job types already exist on r.
func (r *Router) IncludeRouter(child *Router) error {
	childTasks, childBefore, childAfter, childExcept := child.snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range childTasks {
		if _, exists := r.tasks[t.Config.Type]; exists {
			return &DuplicateTaskTypeError{Type: t.Config.Type}
		}
	}

	parentBefore := append([]task.Decorator{}, r.before...)
	parentAfter := append([]task.Decorator{}, r.after...)

	for _, t := range childTasks {
		merged := mergeChain(t, childBefore, childAfter, childExcept)
		merged = mergeChain(merged, parentBefore, parentAfter, r.exceptionHandler)
		r.tasks[merged.Config.Type] = merged
		r.order = append(r.order, merged.Config.Type)
	}
	return nil
}

// Flatten returns every task on r with r's own before/after chains and
// exception-handler fallback merged in, as if r were being included
// into an anonymous, empty-chained parent. Worker.Work calls this once
// on its root registry to produce the frozen task set it runs.
func (r *Router) Flatten() []*task.Task {
	tasks, before, after, except := r.snapshot()
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, mergeChain(t, before, after, except))
	}
	return out
}

func (r *Router) snapshot() (tasks []*task.Task, before, after []task.Decorator, except task.ExceptionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks = make([]*task.Task, 0, len(r.order))
	for _, jt := range r.order {
		tasks = append(tasks, r.tasks[jt])
	}
	before = append([]task.Decorator{}, r.before...)
	after = append([]task.Decorator{}, r.after...)
	except = r.exceptionHandler
	return tasks, before, after, except
}

func mergeChain(t *task.Task, before, after []task.Decorator, fallback task.ExceptionHandler) *task.Task {
	clone := t.Clone()
	if len(before) > 0 {
		clone.PrependBefore(before...)
	}
	if len(after) > 0 {
		clone.AppendAfter(after...)
	}
	clone.SetFallbackExceptionHandler(fallback)
	return clone
}
