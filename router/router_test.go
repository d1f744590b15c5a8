package router_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/router"
	"github.com/arkflow-dev/gozeebe/task"
)

type input struct {
	Name string `json:"name"`
}

type output struct {
	Greeting string `json:"greeting"`
}

func noopHandler(ctx context.Context, j *job.Job, v input) (output, error) {
	return output{Greeting: "hi " + v.Name}, nil
}

func recordingDecorator(label string, calls *[]string) task.Decorator {
	return task.DecoratorFunc(func(ctx context.Context, j *job.Job) (*job.Job, error) {
		*calls = append(*calls, label)
		return j, nil
	})
}

func TestAddTaskRejectsDuplicateType(t *testing.T) {
	r := router.New(zap.NewNop())
	_, err := router.Task(r, "greet", noopHandler)
	require.NoError(t, err)

	_, err = router.Task(r, "greet", noopHandler)
	require.Error(t, err)
	var dup *router.DuplicateTaskTypeError
	assert.ErrorAs(t, err, &dup)
}

func TestGetTaskAndRemoveTaskReportNotFound(t *testing.T) {
	r := router.New(zap.NewNop())
	_, err := r.GetTask("missing")
	require.Error(t, err)
	var nf *router.TaskNotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = r.RemoveTask("missing")
	require.Error(t, err)
	assert.ErrorAs(t, err, &nf)
}

func TestRemoveTaskReturnsRegisteredTask(t *testing.T) {
	r := router.New(zap.NewNop())
	_, err := router.Task(r, "greet", noopHandler)
	require.NoError(t, err)

	removed, err := r.RemoveTask("greet")
	require.NoError(t, err)
	assert.Equal(t, "greet", removed.Config.Type)

	_, err = r.GetTask("greet")
	assert.Error(t, err)
}

func TestIncludeRouterRejectsCollidingTypes(t *testing.T) {
	parent := router.New(zap.NewNop())
	_, err := router.Task(parent, "greet", noopHandler)
	require.NoError(t, err)

	child := router.New(zap.NewNop())
	_, err = router.Task(child, "greet", noopHandler)
	require.NoError(t, err)

	err = parent.IncludeRouter(child)
	require.Error(t, err)
	var dup *router.DuplicateTaskTypeError
	assert.ErrorAs(t, err, &dup)
}

// TestIncludeRouterObservesInclusionOrder is the Go analog of pyzeebe's
// router inclusion-order test: a decorator added to the parent between
// two IncludeRouter calls only reaches tasks included after it.
func TestIncludeRouterObservesInclusionOrder(t *testing.T) {
	var calls []string

	child1 := router.New(zap.NewNop())
	_, err := router.Task(child1, "task-one", noopHandler)
	require.NoError(t, err)

	child2 := router.New(zap.NewNop())
	_, err = router.Task(child2, "task-two", noopHandler)
	require.NoError(t, err)

	parent := router.New(zap.NewNop())
	parent.Before(recordingDecorator("parent-before-A", &calls))
	require.NoError(t, parent.IncludeRouter(child1))
	parent.Before(recordingDecorator("parent-before-B", &calls))
	require.NoError(t, parent.IncludeRouter(child2))

	flattened := parent.Flatten()
	var flatOne, flatTwo *task.Task
	for _, tk := range flattened {
		switch tk.Config.Type {
		case "task-one":
			flatOne = tk
		case "task-two":
			flatTwo = tk
		}
	}
	require.NotNil(t, flatOne)
	require.NotNil(t, flatTwo)

	calls = nil
	flatOne.JobHandler(context.Background(), &job.Job{Key: 1, Variables: []byte(`{"name":"a"}`)}, job.NewController(&noopReporter{}, &job.Job{Key: 1}))
	assert.Equal(t, []string{"parent-before-A"}, calls, "task-one was included before parent-before-B was added")

	calls = nil
	flatTwo.JobHandler(context.Background(), &job.Job{Key: 2, Variables: []byte(`{"name":"b"}`)}, job.NewController(&noopReporter{}, &job.Job{Key: 2}))
	assert.Equal(t, []string{"parent-before-A", "parent-before-B"}, calls, "task-two was included after both parent decorators were added")
}

type noopReporter struct{}

func (noopReporter) CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error {
	return nil
}
func (noopReporter) FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error {
	return nil
}
func (noopReporter) ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error {
	return nil
}
