package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arkflow-dev/gozeebe/internal/gatewaypb"
	"github.com/arkflow-dev/gozeebe/job"
)

// ActivateJobsOptions parameterizes ActivateJobs.
type ActivateJobsOptions struct {
	Type              string
	WorkerName        string
	Timeout           time.Duration
	MaxJobsToActivate int32
	VariablesToFetch  []string
	RequestTimeout    time.Duration
	TenantIDs         []string
}

// JobStream yields activated jobs one at a time as the poller pulls
// them. It wraps the underlying server-streaming RPC; Recv blocks until
// the next job arrives, the stream ends, or ctx (passed to ActivateJobs)
// is cancelled.
type JobStream interface {
	Recv() (*job.Job, error)
}

type jobStream struct {
	stream     gatewaypb.Gateway_ActivateJobsClient
	workerName string
}

func (s *jobStream) Recv() (*job.Job, error) {
	msg, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	return decodeActivatedJob(msg), nil
}

// ActivateJobs opens the server-streaming activation RPC for one task
// type. The returned stream is not retried internally — the poller owns
// reconnection.
func (a *Adapter) ActivateJobs(ctx context.Context, opts ActivateJobsOptions) (JobStream, error) {
	var stream gatewaypb.Gateway_ActivateJobsClient
	err := a.guard(func() error {
		s, err := a.client.ActivateJobs(ctx, &gatewaypb.ActivateJobsRequest{
			Type:              opts.Type,
			Worker:            opts.WorkerName,
			Timeout:           opts.Timeout.Milliseconds(),
			MaxJobsToActivate: opts.MaxJobsToActivate,
			FetchVariable:     opts.VariablesToFetch,
			RequestTimeout:    opts.RequestTimeout.Milliseconds(),
			TenantIds:         opts.TenantIDs,
		})
		if err != nil {
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &jobStream{stream: stream, workerName: opts.WorkerName}, nil
}

func decodeActivatedJob(msg *gatewaypb.ActivatedJob) *job.Job {
	headers := map[string]string{}
	if msg.CustomHeaders != "" {
		_ = json.Unmarshal([]byte(msg.CustomHeaders), &headers)
	}
	return &job.Job{
		Key:                      msg.Key,
		Type:                     msg.Type,
		ProcessInstanceKey:       msg.ProcessInstanceKey,
		BPMNProcessID:            msg.BpmnProcessId,
		ProcessDefinitionVersion: msg.ProcessDefinitionVersion,
		ProcessDefinitionKey:     msg.ProcessDefinitionKey,
		ElementID:                msg.ElementId,
		ElementInstanceKey:       msg.ElementInstanceKey,
		Worker:                   msg.Worker,
		Retries:                  msg.Retries,
		Deadline:                 time.UnixMilli(msg.Deadline),
		TenantID:                 msg.TenantId,
		Variables:                json.RawMessage(msg.Variables),
		CustomHeaders:            headers,
	}
}
