package gatewaypb

import (
	"context"

	"google.golang.org/grpc"
)

const (
	Gateway_ActivateJobs_FullMethodName                  = "/gateway_protocol.Gateway/ActivateJobs"
	Gateway_CompleteJob_FullMethodName                   = "/gateway_protocol.Gateway/CompleteJob"
	Gateway_FailJob_FullMethodName                       = "/gateway_protocol.Gateway/FailJob"
	Gateway_ThrowError_FullMethodName                    = "/gateway_protocol.Gateway/ThrowError"
	Gateway_PublishMessage_FullMethodName                = "/gateway_protocol.Gateway/PublishMessage"
	Gateway_CreateProcessInstance_FullMethodName          = "/gateway_protocol.Gateway/CreateProcessInstance"
	Gateway_CreateProcessInstanceWithResult_FullMethodName = "/gateway_protocol.Gateway/CreateProcessInstanceWithResult"
	Gateway_CancelProcessInstance_FullMethodName          = "/gateway_protocol.Gateway/CancelProcessInstance"
	Gateway_DeployResource_FullMethodName                 = "/gateway_protocol.Gateway/DeployResource"
	Gateway_Topology_FullMethodName                       = "/gateway_protocol.Gateway/Topology"
)

// GatewayClient is the client API for the Gateway service. For semantics
// around ctx use and closing/ending streaming RPCs, see
// google.golang.org/grpc#ClientConn.NewStream.
type GatewayClient interface {
	ActivateJobs(ctx context.Context, in *ActivateJobsRequest, opts ...grpc.CallOption) (Gateway_ActivateJobsClient, error)
	CompleteJob(ctx context.Context, in *CompleteJobRequest, opts ...grpc.CallOption) (*CompleteJobResponse, error)
	FailJob(ctx context.Context, in *FailJobRequest, opts ...grpc.CallOption) (*FailJobResponse, error)
	ThrowError(ctx context.Context, in *ThrowErrorRequest, opts ...grpc.CallOption) (*ThrowErrorResponse, error)
	PublishMessage(ctx context.Context, in *PublishMessageRequest, opts ...grpc.CallOption) (*PublishMessageResponse, error)
	CreateProcessInstance(ctx context.Context, in *CreateProcessInstanceRequest, opts ...grpc.CallOption) (*CreateProcessInstanceResponse, error)
	CreateProcessInstanceWithResult(ctx context.Context, in *CreateProcessInstanceWithResultRequest, opts ...grpc.CallOption) (*CreateProcessInstanceWithResultResponse, error)
	CancelProcessInstance(ctx context.Context, in *CancelProcessInstanceRequest, opts ...grpc.CallOption) (*CancelProcessInstanceResponse, error)
	DeployResource(ctx context.Context, in *DeployResourceRequest, opts ...grpc.CallOption) (*DeployResourceResponse, error)
	Topology(ctx context.Context, in *TopologyRequest, opts ...grpc.CallOption) (*TopologyResponse, error)
}

type gatewayClient struct {
	cc grpc.ClientConnInterface
}

// NewGatewayClient wraps cc (typically the result of grpc.NewClient) in a
// GatewayClient.
func NewGatewayClient(cc grpc.ClientConnInterface) GatewayClient {
	return &gatewayClient{cc}
}

func (c *gatewayClient) ActivateJobs(ctx context.Context, in *ActivateJobsRequest, opts ...grpc.CallOption) (Gateway_ActivateJobsClient, error) {
	stream, err := c.cc.NewStream(ctx, &Gateway_ServiceDesc.Streams[0], Gateway_ActivateJobs_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &gatewayActivateJobsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Gateway_ActivateJobsClient is the server-streaming response of
// ActivateJobs: one batch of activations per Recv, until the stream ends.
type Gateway_ActivateJobsClient interface {
	Recv() (*ActivatedJob, error)
	grpc.ClientStream
}

type gatewayActivateJobsClient struct {
	grpc.ClientStream
}

func (x *gatewayActivateJobsClient) Recv() (*ActivatedJob, error) {
	m := new(ActivatedJob)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *gatewayClient) CompleteJob(ctx context.Context, in *CompleteJobRequest, opts ...grpc.CallOption) (*CompleteJobResponse, error) {
	out := new(CompleteJobResponse)
	if err := c.cc.Invoke(ctx, Gateway_CompleteJob_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) FailJob(ctx context.Context, in *FailJobRequest, opts ...grpc.CallOption) (*FailJobResponse, error) {
	out := new(FailJobResponse)
	if err := c.cc.Invoke(ctx, Gateway_FailJob_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) ThrowError(ctx context.Context, in *ThrowErrorRequest, opts ...grpc.CallOption) (*ThrowErrorResponse, error) {
	out := new(ThrowErrorResponse)
	if err := c.cc.Invoke(ctx, Gateway_ThrowError_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) PublishMessage(ctx context.Context, in *PublishMessageRequest, opts ...grpc.CallOption) (*PublishMessageResponse, error) {
	out := new(PublishMessageResponse)
	if err := c.cc.Invoke(ctx, Gateway_PublishMessage_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) CreateProcessInstance(ctx context.Context, in *CreateProcessInstanceRequest, opts ...grpc.CallOption) (*CreateProcessInstanceResponse, error) {
	out := new(CreateProcessInstanceResponse)
	if err := c.cc.Invoke(ctx, Gateway_CreateProcessInstance_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) CreateProcessInstanceWithResult(ctx context.Context, in *CreateProcessInstanceWithResultRequest, opts ...grpc.CallOption) (*CreateProcessInstanceWithResultResponse, error) {
	out := new(CreateProcessInstanceWithResultResponse)
	if err := c.cc.Invoke(ctx, Gateway_CreateProcessInstanceWithResult_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) CancelProcessInstance(ctx context.Context, in *CancelProcessInstanceRequest, opts ...grpc.CallOption) (*CancelProcessInstanceResponse, error) {
	out := new(CancelProcessInstanceResponse)
	if err := c.cc.Invoke(ctx, Gateway_CancelProcessInstance_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) DeployResource(ctx context.Context, in *DeployResourceRequest, opts ...grpc.CallOption) (*DeployResourceResponse, error) {
	out := new(DeployResourceResponse)
	if err := c.cc.Invoke(ctx, Gateway_DeployResource_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) Topology(ctx context.Context, in *TopologyRequest, opts ...grpc.CallOption) (*TopologyResponse, error) {
	out := new(TopologyResponse)
	if err := c.cc.Invoke(ctx, Gateway_Topology_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Gateway_ServiceDesc is the grpc.ServiceDesc for the Gateway service,
// providing the stream descriptor ActivateJobs needs at call time.
var Gateway_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "gateway_protocol.Gateway",
	HandlerType: (*GatewayClient)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ActivateJobs",
			ServerStreams: true,
		},
	},
	Metadata: "gateway.proto",
}
