// Package gatewaytest provides an in-memory fake satisfying the
// narrow interfaces worker and client depend on (job.Reporter plus
// ActivateJobs), so poller, executor, supervisor, and client tests run
// without a real gRPC gateway. Grounded on pyzeebe's mocked-adapter
// test fixtures, which stub the same handful of RPCs rather than
// standing up a server.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arkflow-dev/gozeebe/gateway"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// CompletedJob records one CompleteJob call.
type CompletedJob struct {
	Key       int64
	Variables json.RawMessage
}

// FailedJob records one FailJob call.
type FailedJob struct {
	Key          int64
	Retries      int32
	Message      string
	RetryBackoff time.Duration
}

// ThrownError records one ThrowError call.
type ThrownError struct {
	Key       int64
	ErrorCode string
	Message   string
}

// Gateway is an in-memory stand-in for *gateway.Adapter. Queue jobs for
// a task type with Enqueue before the poller/worker starts consuming
// them; an ActivateJobs call always drains the current queue and ends
// the stream with io.EOF, mirroring one long-poll round.
type Gateway struct {
	mu sync.Mutex

	queues map[string][]*job.Job

	activateErr map[string][]error // queued errors returned by ActivateJobs, consumed in order

	Completed []CompletedJob
	Failed    []FailedJob
	Thrown    []ThrownError

	MessagesPublished []gateway.PublishMessageOptions
	publishedIDs      map[string]bool
}

// New builds an empty Gateway fake.
func New() *Gateway {
	return &Gateway{
		queues:       map[string][]*job.Job{},
		activateErr:  map[string][]error{},
		publishedIDs: map[string]bool{},
	}
}

// Enqueue adds jobs to jobType's queue, to be handed out by the next
// ActivateJobs call for that type.
func (g *Gateway) Enqueue(jobType string, jobs ...*job.Job) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queues[jobType] = append(g.queues[jobType], jobs...)
}

// FailNextActivate queues err to be returned by the next ActivateJobs
// call for jobType, instead of a stream.
func (g *Gateway) FailNextActivate(jobType string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activateErr[jobType] = append(g.activateErr[jobType], err)
}

// ActivateJobs implements the worker package's activator interface.
func (g *Gateway) ActivateJobs(ctx context.Context, opts gateway.ActivateJobsOptions) (gateway.JobStream, error) {
	g.mu.Lock()
	if errs := g.activateErr[opts.Type]; len(errs) > 0 {
		err := errs[0]
		g.activateErr[opts.Type] = errs[1:]
		g.mu.Unlock()
		return nil, err
	}
	batch := g.queues[opts.Type]
	g.queues[opts.Type] = nil
	g.mu.Unlock()

	return &fakeStream{jobs: batch}, nil
}

type fakeStream struct {
	jobs []*job.Job
	idx  int
}

func (s *fakeStream) Recv() (*job.Job, error) {
	if s.idx >= len(s.jobs) {
		return nil, io.EOF
	}
	j := s.jobs[s.idx]
	s.idx++
	return j, nil
}

// CompleteJob implements job.Reporter.
func (g *Gateway) CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Completed = append(g.Completed, CompletedJob{Key: key, Variables: variables})
	return nil
}

// FailJob implements job.Reporter.
func (g *Gateway) FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Failed = append(g.Failed, FailedJob{Key: key, Retries: retries, Message: message, RetryBackoff: retryBackoff})
	return nil
}

// ThrowError implements job.Reporter.
func (g *Gateway) ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Thrown = append(g.Thrown, ThrownError{Key: key, ErrorCode: errorCode, Message: message})
	return nil
}

// PublishMessage implements the client package's publisher interface.
func (g *Gateway) PublishMessage(ctx context.Context, opts gateway.PublishMessageOptions) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := opts.MessageID
	if id != "" && g.publishedIDs[id] {
		return 0, &zberrors.AlreadyExistsError{Entity: fmt.Sprintf("message %s", id)}
	}
	if id != "" {
		g.publishedIDs[id] = true
	}
	g.MessagesPublished = append(g.MessagesPublished, opts)
	return int64(len(g.MessagesPublished)), nil
}

// CreateProcessInstance implements the client package's process-starter
// interface. The key it returns is one more than the number of job
// outcomes recorded so far, so repeated calls with no outcomes in
// between return the same key.
func (g *Gateway) CreateProcessInstance(ctx context.Context, bpmnProcessID string, version int32, variables json.RawMessage) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(len(g.Completed) + len(g.Failed) + len(g.Thrown) + 1), nil
}

// CreateProcessInstanceWithResult echoes back the input variables as
// the result, since the fake has no process engine to evaluate.
func (g *Gateway) CreateProcessInstanceWithResult(ctx context.Context, bpmnProcessID string, version int32, variables json.RawMessage, timeout time.Duration, variablesToFetch []string) (int64, json.RawMessage, error) {
	return 1, variables, nil
}

// CancelProcessInstance implements the client package's canceller
// interface as a no-op success.
func (g *Gateway) CancelProcessInstance(ctx context.Context, processInstanceKey int64) error {
	return nil
}

// DeployResource implements the client package's deployer interface
// with one synthesized deployment per resource.
func (g *Gateway) DeployResource(ctx context.Context, resources ...gateway.Resource) (int64, []gateway.Deployment, error) {
	deployments := make([]gateway.Deployment, 0, len(resources))
	for i, r := range resources {
		deployments = append(deployments, gateway.Deployment{BPMNProcessID: r.Name, Version: 1, ProcessDefinitionKey: int64(i + 1)})
	}
	return 1, deployments, nil
}

var _ job.Reporter = (*Gateway)(nil)
