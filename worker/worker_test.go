package worker_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/gatewaytest"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/metrics"
	"github.com/arkflow-dev/gozeebe/task"
	"github.com/arkflow-dev/gozeebe/worker"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

type greetInput struct {
	Name string `json:"name"`
}

type greetOutput struct {
	Greeting string `json:"greeting"`
}

func TestWorkDrainsEnqueuedJobsAndStopsGracefully(t *testing.T) {
	gw := gatewaytest.New()
	gw.Enqueue("greet", &job.Job{Key: 1, Type: "greet", Variables: json.RawMessage(`{"name":"ada"}`), Deadline: time.Now().Add(time.Minute)})
	gw.Enqueue("greet", &job.Job{Key: 2, Type: "greet", Variables: json.RawMessage(`{"name":"grace"}`), Deadline: time.Now().Add(time.Minute)})

	w := worker.New(gw, "test-worker", zap.NewNop(), worker.WithRequestTimeout(20*time.Millisecond))
	_, err := worker.Task(w, "greet", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		return greetOutput{Greeting: "hi " + v.Name}, nil
	})
	require.NoError(t, err)

	workDone := make(chan error, 1)
	go func() { workDone <- w.Work(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(gw.Completed) == 2
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	select {
	case err := <-workDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Work did not return after Stop")
	}
}

func TestWorkRejectsSecondCall(t *testing.T) {
	gw := gatewaytest.New()
	w := worker.New(gw, "test-worker", zap.NewNop(), worker.WithRequestTimeout(20*time.Millisecond))
	_, err := worker.Task(w, "greet", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		return greetOutput{}, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	workDone := make(chan error, 1)
	go func() { workDone <- w.Work(ctx) }()

	require.Eventually(t, func() bool {
		err := w.Work(context.Background())
		return err != nil
	}, time.Second, 5*time.Millisecond, "Work should start before its second call is attempted")

	err = w.Work(context.Background())
	assert.ErrorIs(t, err, zberrors.ErrWorkerStopped)

	cancel()
	<-workDone
}

func TestWorkRoutesBusinessErrorThroughController(t *testing.T) {
	gw := gatewaytest.New()
	gw.Enqueue("charge", &job.Job{Key: 7, Type: "charge", Variables: json.RawMessage(`{"name":"ada"}`), Deadline: time.Now().Add(time.Minute)})

	w := worker.New(gw, "test-worker", zap.NewNop(), worker.WithRequestTimeout(20*time.Millisecond))
	_, err := worker.Task(w, "charge", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		return greetOutput{}, task.NewBusinessError("INSUFFICIENT_FUNDS", "balance too low")
	})
	require.NoError(t, err)

	go w.Work(context.Background())
	defer w.StopForce()

	require.Eventually(t, func() bool {
		return len(gw.Thrown) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "INSUFFICIENT_FUNDS", gw.Thrown[0].ErrorCode)
	assert.Empty(t, gw.Completed)
	assert.Empty(t, gw.Failed)
}

func TestWorkDiesOnNonRetryableAdapterError(t *testing.T) {
	gw := gatewaytest.New()
	gw.FailNextActivate("greet", &zberrors.NotFoundError{Entity: "process definition"})

	w := worker.New(gw, "test-worker", zap.NewNop(), worker.WithRequestTimeout(20*time.Millisecond))
	_, err := worker.Task(w, "greet", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		return greetOutput{}, nil
	})
	require.NoError(t, err)

	err = w.Work(context.Background())
	var nf *zberrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// peakInFlightSink records the highest in-flight count worker/executor.go
// ever reports for a task, via the same metrics.Sink hook production code
// uses — not a second, test-only counter.
type peakInFlightSink struct {
	metrics.NopSink

	mu      sync.Mutex
	current int32
	peak    int32
}

func (s *peakInFlightSink) SetInFlight(jobType string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = int32(n)
	if int32(n) > s.peak {
		s.peak = int32(n)
	}
}

func (s *peakInFlightSink) snapshot() (current, peak int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.peak
}

func TestExecutorPoolNeverExceedsMaxRunningJobs(t *testing.T) {
	const maxRunningJobs = 2
	const jobCount = 6

	gw := gatewaytest.New()
	for i := int64(1); i <= jobCount; i++ {
		gw.Enqueue("greet", &job.Job{Key: i, Type: "greet", Variables: json.RawMessage(`{"name":"x"}`), Deadline: time.Now().Add(time.Minute)})
	}

	sink := &peakInFlightSink{}
	w := worker.New(gw, "test-worker", zap.NewNop(), worker.WithRequestTimeout(20*time.Millisecond), worker.WithMetrics(sink))

	// gate blocks every handler invocation until the test releases it, so
	// jobCount jobs queued well past maxRunningJobs force the pool to
	// actually contend for its fixed concurrency ceiling instead of
	// draining instantly.
	gate := make(chan struct{})
	_, err := worker.Task(w, "greet", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		<-gate
		return greetOutput{}, nil
	}, task.WithMaxRunningJobs(maxRunningJobs), task.WithMaxJobsToActivate(maxRunningJobs))
	require.NoError(t, err)

	go w.Work(context.Background())
	defer w.StopForce()

	require.Eventually(t, func() bool {
		current, _ := sink.snapshot()
		return current == maxRunningJobs
	}, time.Second, 5*time.Millisecond, "pool should saturate to its configured ceiling")

	for i := 0; i < jobCount; i++ {
		gate <- struct{}{}
	}

	require.Eventually(t, func() bool {
		return len(gw.Completed) == jobCount
	}, time.Second, 5*time.Millisecond)

	_, peak := sink.snapshot()
	assert.LessOrEqual(t, peak, int32(maxRunningJobs), "in-flight count must never exceed max_running_jobs")
	assert.Equal(t, int32(maxRunningJobs), peak, "the pool should have reached its ceiling at least once given 6 queued jobs and a ceiling of 2")
}
