package router

import "fmt"

// DuplicateTaskTypeError indicates a job type already registered on a
// registry, either directly or via a prior IncludeRouter merge.
type DuplicateTaskTypeError struct{ Type string }

func (e *DuplicateTaskTypeError) Error() string {
	return fmt.Sprintf("router: task type %q already registered", e.Type)
}

// TaskNotFoundError indicates GetTask/RemoveTask was asked for a job
// type the registry doesn't carry.
type TaskNotFoundError struct{ Type string }

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("router: task type %q not found", e.Type)
}
