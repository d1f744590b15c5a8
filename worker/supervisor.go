package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arkflow-dev/gozeebe/internal/backoff"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/task"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// workerState holds Work/Stop's shared mutable lifecycle state,
// embedded in Worker as a plain value so it never needs its own
// constructor.
type workerState struct {
	mu           sync.Mutex
	started      bool
	stopped      bool
	pollerCancel context.CancelFunc
	forceCancel  context.CancelFunc
	done         chan struct{}
	workErr      error
}

// Work validates and freezes the registry (further task/router
// registrations after this point have no effect on the running set —
// the caller would be mutating the embedded Router, not this frozen
// snapshot), spawns one poller and one max_running_jobs-sized executor
// pool per task, and blocks until ctx is cancelled, Stop/StopForce
// completes, or a poller dies with a non-retryable error, which
// propagates as Work's own result.
//
// Work is single-shot: a second call, even after the first has
// returned, fails immediately with zberrors.ErrWorkerStopped —
// construct a new Worker to run again.
func (w *Worker) Work(ctx context.Context) (err error) {
	w.state.mu.Lock()
	if w.state.started {
		w.state.mu.Unlock()
		return zberrors.ErrWorkerStopped
	}
	w.state.started = true
	forceCtx, forceCancel := context.WithCancel(ctx)
	pollerCtx, pollerCancel := context.WithCancel(forceCtx)
	w.state.forceCancel = forceCancel
	w.state.pollerCancel = pollerCancel
	w.state.done = make(chan struct{})
	done := w.state.done
	w.state.mu.Unlock()

	defer func() {
		forceCancel()
		w.state.mu.Lock()
		w.state.workErr = err
		w.state.mu.Unlock()
		close(done)
	}()

	tasks := w.Router.Flatten()
	if verr := validateTasks(tasks); verr != nil {
		return verr
	}

	var eg errgroup.Group
	for _, t := range tasks {
		w.spawnTask(&eg, t, pollerCtx, forceCtx, forceCancel)
	}

	return eg.Wait()
}

func (w *Worker) spawnTask(eg *errgroup.Group, t *task.Task, pollerCtx, executorCtx context.Context, forceCancel context.CancelFunc) {
	ch := make(chan *job.Job, t.Config.MaxRunningJobs)

	policy := backoff.Default
	if w.pollRetryDelay > 0 {
		policy.Initial = w.pollRetryDelay
	}

	p := &poller{
		gw:             w.gw,
		task:           t,
		workerName:     w.name,
		requestTimeout: w.requestTimeout,
		tenantIDs:      w.tenantIDs,
		out:            ch,
		logger:         w.logger.Named("poller").With(zap.String("job_type", t.Config.Type)),
		policy:         policy,
		metrics:        w.metrics,
	}
	eg.Go(func() error {
		defer close(ch)
		err := p.run(pollerCtx)
		if err != nil {
			// Non-retryable: bring the whole worker down rather than let
			// this task silently stop producing.
			forceCancel()
		}
		return err
	})

	pool := &executorPool{
		task:     t,
		reporter: w.gw,
		in:       ch,
		logger:   w.logger.Named("executor").With(zap.String("job_type", t.Config.Type)),
		metrics:  w.metrics,
	}
	for i := int32(0); i < t.Config.MaxRunningJobs; i++ {
		eg.Go(func() error { return pool.run(executorCtx) })
	}
}

func validateTasks(tasks []*task.Task) error {
	seen := map[string]bool{}
	for _, t := range tasks {
		if t.Config.Type == "" {
			return fmt.Errorf("worker: task with empty type in registry")
		}
		if seen[t.Config.Type] {
			// Unreachable in practice — router.AddTask/IncludeRouter already
			// reject duplicates — but Work double-checks before spawning
			// anything, since a registry bug here would otherwise surface
			// as two pollers racing the same job type.
			return fmt.Errorf("worker: duplicate task type %q", t.Config.Type)
		}
		seen[t.Config.Type] = true
	}
	return nil
}

// Stop initiates a graceful shutdown: pollers drop their streams
// immediately (no new jobs are enqueued), and already-queued jobs drain
// normally. If ctx carries a deadline and it elapses before every
// executor finishes draining, Stop escalates to a force-cancel (as
// StopForce would) so it still returns once Work does. Idempotent: a
// second call observes the first's outcome instead of cancelling
// twice.
func (w *Worker) Stop(ctx context.Context) error {
	w.state.mu.Lock()
	if !w.state.started {
		w.state.mu.Unlock()
		return nil
	}
	pollerCancel := w.state.pollerCancel
	forceCancel := w.state.forceCancel
	done := w.state.done
	w.state.stopped = true
	w.state.mu.Unlock()

	pollerCancel()

	select {
	case <-done:
		return w.resultErr()
	case <-ctx.Done():
		forceCancel()
		<-done
		return multierr.Append(ctx.Err(), w.resultErr())
	}
}

// StopForce cancels every poller and executor immediately; in-flight
// jobs are abandoned and their lease will expire on the gateway.
// Blocks until Work has returned.
func (w *Worker) StopForce() error {
	w.state.mu.Lock()
	if !w.state.started {
		w.state.mu.Unlock()
		return nil
	}
	pollerCancel := w.state.pollerCancel
	forceCancel := w.state.forceCancel
	done := w.state.done
	w.state.stopped = true
	w.state.mu.Unlock()

	pollerCancel()
	forceCancel()
	<-done
	return w.resultErr()
}

func (w *Worker) resultErr() error {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	return w.state.workErr
}
