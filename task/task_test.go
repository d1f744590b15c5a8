package task_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/task"
)

type fakeReporter struct {
	completed  bool
	completedVars json.RawMessage
	failed     bool
	failMsg    string
	thrown     bool
	errorCode  string
	errorMsg   string
}

func (f *fakeReporter) CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error {
	f.completed = true
	f.completedVars = variables
	return nil
}

func (f *fakeReporter) FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error {
	f.failed = true
	f.failMsg = message
	return nil
}

func (f *fakeReporter) ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error {
	f.thrown = true
	f.errorCode = errorCode
	f.errorMsg = message
	return nil
}

type orderInput struct {
	A string `json:"a"`
	B int    `json:"b"`
	C bool   `json:"c"`
}

type orderOutput struct {
	Sum int `json:"sum"`
}

func TestNewDerivesVariablesToFetchInDeclarationOrder(t *testing.T) {
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		return orderOutput{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tsk.Config.VariablesToFetch)
}

func TestJobHandlerReportsSuccess(t *testing.T) {
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		return orderOutput{Sum: v.B + 1}, nil
	})
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 1, Type: "order-task", Variables: json.RawMessage(`{"a":"x","b":2,"c":true}`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	tsk.JobHandler(context.Background(), j, controller)

	assert.True(t, reporter.completed)
	assert.JSONEq(t, `{"sum":3}`, string(reporter.completedVars))
}

func TestJobHandlerRoutesBusinessError(t *testing.T) {
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		return orderOutput{}, task.NewBusinessError("NOT_ENOUGH_FUNDS", "balance too low")
	})
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 2, Type: "order-task", Variables: json.RawMessage(`{"a":"x","b":2,"c":true}`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	tsk.JobHandler(context.Background(), j, controller)

	assert.True(t, reporter.thrown)
	assert.Equal(t, "NOT_ENOUGH_FUNDS", reporter.errorCode)
	assert.False(t, reporter.completed)
	assert.False(t, reporter.failed)
}

func TestJobHandlerFallsBackToDefaultExceptionHandler(t *testing.T) {
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		return orderOutput{}, assert.AnError
	})
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 3, Type: "order-task", Variables: json.RawMessage(`{"a":"x","b":2,"c":true}`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	tsk.JobHandler(context.Background(), j, controller)

	assert.True(t, reporter.failed)
	assert.Contains(t, reporter.failMsg, assert.AnError.Error())
}

func TestJobHandlerDecodeErrorSkipsHandler(t *testing.T) {
	invoked := false
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		invoked = true
		return orderOutput{}, nil
	})
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 4, Type: "order-task", Variables: json.RawMessage(`not json`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	tsk.JobHandler(context.Background(), j, controller)

	assert.False(t, invoked)
	assert.True(t, reporter.failed)
}

func TestJobHandlerSkipsReportingOnDeadlineExceeded(t *testing.T) {
	tsk, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		<-ctx.Done()
		return orderOutput{}, ctx.Err()
	})
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 5, Type: "order-task", Variables: json.RawMessage(`{"a":"x","b":2,"c":true}`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	tsk.JobHandler(ctx, j, controller)

	assert.False(t, reporter.completed)
	assert.False(t, reporter.failed)
	assert.False(t, reporter.thrown)
	assert.False(t, controller.Terminated())
}

type singleValueOutput struct {
	Doubled int `json:"doubled"`
}

func TestSingleValueHandlerDecodesBareValue(t *testing.T) {
	tsk, err := task.New[int, singleValueOutput]("double-task", func(ctx context.Context, j *job.Job, v int) (singleValueOutput, error) {
		return singleValueOutput{Doubled: v * 2}, nil
	}, task.WithSingleValue("amount"))
	require.NoError(t, err)

	reporter := &fakeReporter{}
	j := &job.Job{Key: 6, Type: "double-task", Variables: json.RawMessage(`{"amount":21}`), Deadline: time.Now().Add(time.Minute)}
	controller := job.NewController(reporter, j)

	tsk.JobHandler(context.Background(), j, controller)

	assert.True(t, reporter.completed)
	assert.JSONEq(t, `{"doubled":42}`, string(reporter.completedVars))
}

func TestNewRejectsMaxJobsExceedingMaxRunning(t *testing.T) {
	_, err := task.New[orderInput, orderOutput]("order-task", func(ctx context.Context, j *job.Job, v orderInput) (orderOutput, error) {
		return orderOutput{}, nil
	}, task.WithMaxJobsToActivate(10), task.WithMaxRunningJobs(2))
	require.Error(t, err)
}
