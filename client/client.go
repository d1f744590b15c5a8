// Package client is the façade external callers use to drive process
// instances and correlate messages, as opposed to worker, which reacts
// to jobs a running process emits. A Client wraps the same Gateway
// collaborator the worker package polls against, so the two can share
// one *gateway.Adapter (or one gatewaytest.Gateway in tests).
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/gateway"
)

// Gateway is everything a Client needs from the transport layer.
// *gateway.Adapter satisfies it; gatewaytest.Gateway substitutes for
// tests.
type Gateway interface {
	CreateProcessInstance(ctx context.Context, bpmnProcessID string, version int32, variables json.RawMessage) (int64, error)
	CreateProcessInstanceWithResult(ctx context.Context, bpmnProcessID string, version int32, variables json.RawMessage, timeout time.Duration, variablesToFetch []string) (int64, json.RawMessage, error)
	CancelProcessInstance(ctx context.Context, processInstanceKey int64) error
	DeployResource(ctx context.Context, resources ...gateway.Resource) (int64, []gateway.Deployment, error)
	PublishMessage(ctx context.Context, opts gateway.PublishMessageOptions) (int64, error)
}

var _ Gateway = (*gateway.Adapter)(nil)

// LatestVersion requests the most recently deployed version of a
// process definition — the default run_process/run_process_with_result
// resolves to when no WithVersion option overrides it.
const LatestVersion = int32(-1)

// DefaultMessageTTL is how long a published message stays eligible for
// correlation when WithTimeToLive isn't given.
const DefaultMessageTTL = 60 * time.Second

// Client is the process-instance and message-correlation façade.
type Client struct {
	gw     Gateway
	logger *zap.Logger
}

// New builds a Client talking to gw.
func New(gw Gateway, logger *zap.Logger) *Client {
	return &Client{gw: gw, logger: logger.Named("client")}
}

// runOptions collects RunProcess/RunProcessWithResult's optional
// parameters.
type runOptions struct {
	version          int32
	variables        map[string]any
	timeout          time.Duration
	variablesToFetch []string
}

// RunOption customizes RunProcess/RunProcessWithResult.
type RunOption func(*runOptions)

// WithVersion pins a specific deployed process definition version
// instead of LatestVersion.
func WithVersion(version int32) RunOption {
	return func(o *runOptions) { o.version = version }
}

// WithStartVariables sets the starting variables a new process instance
// receives.
func WithStartVariables(variables map[string]any) RunOption {
	return func(o *runOptions) { o.variables = variables }
}

// WithResultTimeout bounds how long RunProcessWithResult waits before
// giving up; zero means the gateway's own default.
func WithResultTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithVariablesToFetch limits which output variables
// RunProcessWithResult returns; omitted means all of them.
func WithVariablesToFetch(names ...string) RunOption {
	return func(o *runOptions) { o.variablesToFetch = names }
}

func buildRunOptions(opts []RunOption) runOptions {
	ro := runOptions{version: LatestVersion}
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}

func encodeVariables(variables map[string]any) (json.RawMessage, error) {
	if variables == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(variables)
}

// RunProcess starts a new instance of bpmnProcessID and returns
// immediately with its process instance key, without waiting for the
// process to finish.
func (c *Client) RunProcess(ctx context.Context, bpmnProcessID string, opts ...RunOption) (int64, error) {
	ro := buildRunOptions(opts)
	raw, err := encodeVariables(ro.variables)
	if err != nil {
		return 0, err
	}
	key, err := c.gw.CreateProcessInstance(ctx, bpmnProcessID, ro.version, raw)
	if err != nil {
		c.logger.Warn("run process failed", zap.String("bpmn_process_id", bpmnProcessID), zap.Error(err))
		return 0, err
	}
	return key, nil
}

// RunProcessWithResult starts a new instance of bpmnProcessID and
// blocks until it completes (or WithResultTimeout elapses), returning
// its key and the process's end-state variables.
func (c *Client) RunProcessWithResult(ctx context.Context, bpmnProcessID string, opts ...RunOption) (int64, map[string]any, error) {
	ro := buildRunOptions(opts)
	raw, err := encodeVariables(ro.variables)
	if err != nil {
		return 0, nil, err
	}
	key, out, err := c.gw.CreateProcessInstanceWithResult(ctx, bpmnProcessID, ro.version, raw, ro.timeout, ro.variablesToFetch)
	if err != nil {
		c.logger.Warn("run process with result failed", zap.String("bpmn_process_id", bpmnProcessID), zap.Error(err))
		return 0, nil, err
	}
	var result map[string]any
	if len(out) > 0 {
		if err := json.Unmarshal(out, &result); err != nil {
			return key, nil, err
		}
	}
	return key, result, nil
}

// CancelProcessInstance cancels a running process instance and returns
// the same key it was given, as a courtesy for call chaining — the
// gateway's response carries no new information.
func (c *Client) CancelProcessInstance(ctx context.Context, processInstanceKey int64) (int64, error) {
	if err := c.gw.CancelProcessInstance(ctx, processInstanceKey); err != nil {
		return 0, err
	}
	return processInstanceKey, nil
}

// DeployResource deploys one or more BPMN/DMN resource files, reading
// each path and naming the resource after its base name. Any open error
// aborts the whole deployment; the gateway treats DeployResource as
// atomic.
func (c *Client) DeployResource(ctx context.Context, paths ...string) (int64, []gateway.Deployment, error) {
	resources, err := readResources(paths)
	if err != nil {
		return 0, nil, err
	}
	return c.gw.DeployResource(ctx, resources...)
}

// publishOptions collects PublishMessage's optional parameters.
type publishOptions struct {
	variables map[string]any
	ttl       time.Duration
	messageID string
}

// PublishOption customizes PublishMessage.
type PublishOption func(*publishOptions)

// WithMessageVariables sets the variables a correlated message carries.
func WithMessageVariables(variables map[string]any) PublishOption {
	return func(o *publishOptions) { o.variables = variables }
}

// WithTimeToLive overrides DefaultMessageTTL.
func WithTimeToLive(d time.Duration) PublishOption {
	return func(o *publishOptions) { o.ttl = d }
}

// WithMessageID sets an explicit de-duplication id. If left unset,
// PublishMessage generates a random one with uuid.NewString, so two
// calls without an explicit id never collide against each other — only
// a caller-supplied id can trigger AlreadyExistsError.
func WithMessageID(id string) PublishOption {
	return func(o *publishOptions) { o.messageID = id }
}

// PublishMessage publishes a message for BPMN message correlation.
// Returns a *zberrors.AlreadyExistsError if an explicit WithMessageID
// collides with a still-active message.
func (c *Client) PublishMessage(ctx context.Context, name, correlationKey string, opts ...PublishOption) (int64, error) {
	po := publishOptions{ttl: DefaultMessageTTL}
	for _, opt := range opts {
		opt(&po)
	}
	if po.messageID == "" {
		po.messageID = uuid.NewString()
	}
	raw, err := encodeVariables(po.variables)
	if err != nil {
		return 0, err
	}
	key, err := c.gw.PublishMessage(ctx, gateway.PublishMessageOptions{
		Name:           name,
		CorrelationKey: correlationKey,
		TimeToLive:     po.ttl,
		Variables:      raw,
		MessageID:      po.messageID,
	})
	if err != nil {
		c.logger.Warn("publish message failed", zap.String("name", name), zap.String("correlation_key", correlationKey), zap.Error(err))
		return 0, err
	}
	return key, nil
}
