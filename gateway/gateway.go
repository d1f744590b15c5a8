// Package gateway is the thin, typed wrapper over the workflow gateway's
// RPCs: activate-jobs (server stream), complete-job, fail-job,
// throw-error, publish-message, create/cancel process instance, deploy,
// and topology. It translates transport status codes into the
// zberrors taxonomy and applies a connection-retry circuit breaker
// around the underlying gRPC channel.
//
// Adapter is the only piece of this repository that talks gRPC directly;
// router, task, job, and worker all depend on it through narrow
// interfaces (job.Reporter, worker's poller/executor contracts) so they
// can be tested against an in-memory fake (see gatewaytest).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/arkflow-dev/gozeebe/internal/gatewaypb"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/zberrors"
)

// Config holds the parameters needed to dial and govern the gateway
// connection.
type Config struct {
	// Address is the gateway's gRPC address (host:port).
	Address string
	// MaxConnectionRetries bounds how many consecutive retryable failures
	// the adapter tolerates before entering the terminal Closed state.
	// -1 means retry forever.
	MaxConnectionRetries int
	// DialOptions are appended after the adapter's own defaults
	// (insecure transport unless overridden here with a TLS credential).
	DialOptions []grpc.DialOption
}

// Adapter wraps a dialed gRPC connection to the gateway. The zero value
// is not usable; construct with Dial or New.
type Adapter struct {
	client gatewaypb.GatewayClient
	conn   *grpc.ClientConn
	logger *zap.Logger

	maxRetries int

	mu       sync.Mutex
	attempts int
	closed   bool
}

// Dial opens a gRPC connection per cfg and returns a ready Adapter.
func Dial(cfg Config, logger *zap.Logger) (*Adapter, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: dial failed: %w", err)
	}
	return New(gatewaypb.NewGatewayClient(conn), conn, cfg.MaxConnectionRetries, logger), nil
}

// New wraps an already-constructed gatewaypb.GatewayClient. conn may be
// nil if the caller manages connection lifecycle itself (e.g. in tests).
func New(client gatewaypb.GatewayClient, conn *grpc.ClientConn, maxConnectionRetries int, logger *zap.Logger) *Adapter {
	return &Adapter{
		client:     client,
		conn:       conn,
		logger:     logger.Named("gateway"),
		maxRetries: maxConnectionRetries,
	}
}

// Close releases the underlying connection, if Adapter owns one.
func (a *Adapter) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// guard runs fn, translating its error through zberrors.FromStatus and
// applying the connection-retry circuit breaker: a successful call
// resets the attempt counter, a retryable failure increments it, and
// exceeding MaxConnectionRetries moves the adapter into a terminal
// Closed state where every subsequent call fails immediately with
// UnavailableError, without attempting the RPC.
func (a *Adapter) guard(fn func() error) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return &zberrors.UnavailableError{Reason: "adapter closed after exceeding max connection retries"}
	}
	a.mu.Unlock()

	err := zberrors.FromStatus(fn())

	a.mu.Lock()
	defer a.mu.Unlock()
	if err == nil {
		a.attempts = 0
		return nil
	}
	if !zberrors.Retryable(err) {
		return err
	}
	a.attempts++
	if a.maxRetries >= 0 && a.attempts > a.maxRetries {
		a.closed = true
		a.logger.Error("gateway adapter closed: exceeded max connection retries",
			zap.Int("attempts", a.attempts),
			zap.Int("max_connection_retries", a.maxRetries),
		)
	}
	return err
}

// CompleteJob reports a job's successful completion. Implements
// job.Reporter.
func (a *Adapter) CompleteJob(ctx context.Context, key int64, variables json.RawMessage) error {
	return a.guard(func() error {
		_, err := a.client.CompleteJob(ctx, &gatewaypb.CompleteJobRequest{
			JobKey:    key,
			Variables: rawOrEmpty(variables),
		})
		return err
	})
}

// FailJob reports a job failure. retries is the value reported to the
// gateway verbatim — the gateway's own policy decides whether to
// decrement it. Implements job.Reporter.
func (a *Adapter) FailJob(ctx context.Context, key int64, retries int32, message string, retryBackoff time.Duration, variables json.RawMessage) error {
	return a.guard(func() error {
		_, err := a.client.FailJob(ctx, &gatewaypb.FailJobRequest{
			JobKey:       key,
			Retries:      retries,
			ErrorMessage: message,
			RetryBackOff: retryBackoff.Milliseconds(),
			Variables:    rawOrEmpty(variables),
		})
		return err
	})
}

// ThrowError reports a BusinessError outcome: the gateway routes it back
// into the process as a BPMN error event instead of treating it as a
// worker failure. Implements job.Reporter.
func (a *Adapter) ThrowError(ctx context.Context, key int64, errorCode, message string, variables json.RawMessage) error {
	return a.guard(func() error {
		_, err := a.client.ThrowError(ctx, &gatewaypb.ThrowErrorRequest{
			JobKey:       key,
			ErrorCode:    errorCode,
			ErrorMessage: message,
			Variables:    rawOrEmpty(variables),
		})
		return err
	})
}

// PublishMessageOptions parameterizes PublishMessage.
type PublishMessageOptions struct {
	Name           string
	CorrelationKey string
	TimeToLive     time.Duration
	Variables      json.RawMessage
	MessageID      string
}

// PublishMessage publishes a message for BPMN message correlation.
// Returns AlreadyExistsError if MessageID collides with an active
// message.
func (a *Adapter) PublishMessage(ctx context.Context, opts PublishMessageOptions) (int64, error) {
	var key int64
	err := a.guard(func() error {
		resp, err := a.client.PublishMessage(ctx, &gatewaypb.PublishMessageRequest{
			Name:           opts.Name,
			CorrelationKey: opts.CorrelationKey,
			TimeToLive:     opts.TimeToLive.Milliseconds(),
			Variables:      rawOrEmpty(opts.Variables),
			MessageId:      opts.MessageID,
		})
		if err != nil {
			return err
		}
		key = resp.Key
		return nil
	})
	return key, err
}

// CreateProcessInstance starts a new process instance and returns its
// key immediately, without waiting for completion.
func (a *Adapter) CreateProcessInstance(ctx context.Context, bpmnProcessID string, version int32, variables json.RawMessage) (int64, error) {
	var key int64
	err := a.guard(func() error {
		resp, err := a.client.CreateProcessInstance(ctx, &gatewaypb.CreateProcessInstanceRequest{
			BpmnProcessId: bpmnProcessID,
			Version:       version,
			Variables:     rawOrEmpty(variables),
		})
		if err != nil {
			return err
		}
		key = resp.ProcessInstanceKey
		return nil
	})
	return key, err
}

// CreateProcessInstanceWithResult starts a process instance and blocks
// until it completes or timeout elapses, returning its key and the
// requested output variables.
func (a *Adapter) CreateProcessInstanceWithResult(
	ctx context.Context,
	bpmnProcessID string,
	version int32,
	variables json.RawMessage,
	timeout time.Duration,
	variablesToFetch []string,
) (int64, json.RawMessage, error) {
	var (
		key int64
		out json.RawMessage
	)
	err := a.guard(func() error {
		resp, err := a.client.CreateProcessInstanceWithResult(ctx, &gatewaypb.CreateProcessInstanceWithResultRequest{
			Request: &gatewaypb.CreateProcessInstanceRequest{
				BpmnProcessId: bpmnProcessID,
				Version:       version,
				Variables:     rawOrEmpty(variables),
			},
			RequestTimeout: timeout.Milliseconds(),
			FetchVariables: variablesToFetch,
		})
		if err != nil {
			return err
		}
		key = resp.ProcessInstanceKey
		out = json.RawMessage(resp.Variables)
		return nil
	})
	return key, out, err
}

// CancelProcessInstance cancels a running process instance.
func (a *Adapter) CancelProcessInstance(ctx context.Context, processInstanceKey int64) error {
	return a.guard(func() error {
		_, err := a.client.CancelProcessInstance(ctx, &gatewaypb.CancelProcessInstanceRequest{
			ProcessInstanceKey: processInstanceKey,
		})
		return err
	})
}

// Resource is one file passed to DeployResource.
type Resource struct {
	Name    string
	Content []byte
}

// Deployment describes one process definition created by a
// DeployResource call.
type Deployment struct {
	BPMNProcessID        string
	Version              int32
	ProcessDefinitionKey int64
}

// DeployResource deploys one or more BPMN/DMN resources.
func (a *Adapter) DeployResource(ctx context.Context, resources ...Resource) (int64, []Deployment, error) {
	var (
		key         int64
		deployments []Deployment
	)
	err := a.guard(func() error {
		req := &gatewaypb.DeployResourceRequest{}
		for _, r := range resources {
			req.Resources = append(req.Resources, &gatewaypb.Resource{Name: r.Name, Content: r.Content})
		}
		resp, err := a.client.DeployResource(ctx, req)
		if err != nil {
			return err
		}
		key = resp.Key
		for _, d := range resp.Deployments {
			deployments = append(deployments, Deployment{
				BPMNProcessID:        d.BpmnProcessId,
				Version:              d.Version,
				ProcessDefinitionKey: d.ProcessDefinitionKey,
			})
		}
		return nil
	})
	return key, deployments, err
}

// Topology describes the cluster the gateway fronts.
type Topology struct {
	Brokers           []BrokerInfo
	ClusterSize       int32
	PartitionsCount   int32
	ReplicationFactor int32
	GatewayVersion    string
}

// BrokerInfo describes one broker node in the cluster.
type BrokerInfo struct {
	NodeID     int32
	Host       string
	Port       int32
	Partitions []PartitionInfo
}

// PartitionInfo describes one partition a broker hosts.
type PartitionInfo struct {
	PartitionID int32
	Role        string
}

// Topology queries the gateway's current cluster view.
func (a *Adapter) Topology(ctx context.Context) (*Topology, error) {
	var out *Topology
	err := a.guard(func() error {
		resp, err := a.client.Topology(ctx, &gatewaypb.TopologyRequest{})
		if err != nil {
			return err
		}
		out = &Topology{
			ClusterSize:       resp.ClusterSize,
			PartitionsCount:   resp.PartitionsCount,
			ReplicationFactor: resp.ReplicationFactor,
			GatewayVersion:    resp.GatewayVersion,
		}
		for _, b := range resp.Brokers {
			broker := BrokerInfo{NodeID: b.NodeId, Host: b.Host, Port: b.Port}
			for _, p := range b.Partitions {
				broker.Partitions = append(broker.Partitions, PartitionInfo{PartitionID: p.PartitionId, Role: p.Role})
			}
			out.Brokers = append(out.Brokers, broker)
		}
		return nil
	})
	return out, err
}

// compile-time assertion that Adapter satisfies job.Reporter.
var _ job.Reporter = (*Adapter)(nil)

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
