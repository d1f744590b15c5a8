// Package gatewaypb holds the wire message types and the generated-style
// client stub for the workflow gateway's job-activation and command RPCs
// (see gateway.proto in this directory). It is the external transport
// contract the gateway package depends on — nothing outside gateway and
// its tests should import this package directly.
package gatewaypb

// --- ActivateJobs -----------------------------------------------------

type ActivateJobsRequest struct {
	Type              string
	Worker            string
	Timeout           int64
	MaxJobsToActivate int32
	FetchVariable     []string
	RequestTimeout    int64
	TenantIds         []string
}

type ActivatedJob struct {
	Key                      int64
	Type                     string
	ProcessInstanceKey       int64
	BpmnProcessId            string
	ProcessDefinitionVersion int32
	ProcessDefinitionKey     int64
	ElementId                string
	ElementInstanceKey       int64
	CustomHeaders            string
	Worker                   string
	Retries                  int32
	Deadline                 int64
	Variables                string
	TenantId                 string
}

// --- CompleteJob -------------------------------------------------------

type CompleteJobRequest struct {
	JobKey    int64
	Variables string
}

type CompleteJobResponse struct{}

// --- FailJob -------------------------------------------------------

type FailJobRequest struct {
	JobKey       int64
	Retries      int32
	ErrorMessage string
	RetryBackOff int64
	Variables    string
}

type FailJobResponse struct{}

// --- ThrowError -------------------------------------------------------

type ThrowErrorRequest struct {
	JobKey       int64
	ErrorCode    string
	ErrorMessage string
	Variables    string
}

type ThrowErrorResponse struct{}

// --- PublishMessage -----------------------------------------------------

type PublishMessageRequest struct {
	Name           string
	CorrelationKey string
	TimeToLive     int64
	Variables      string
	MessageId      string
}

type PublishMessageResponse struct {
	Key int64
}

// --- CreateProcessInstance -----------------------------------------------

type CreateProcessInstanceRequest struct {
	BpmnProcessId string
	Version       int32
	Variables     string
}

type CreateProcessInstanceResponse struct {
	ProcessInstanceKey   int64
	ProcessDefinitionKey int64
	BpmnProcessId        string
	Version              int32
}

type CreateProcessInstanceWithResultRequest struct {
	Request        *CreateProcessInstanceRequest
	RequestTimeout int64
	FetchVariables []string
}

type CreateProcessInstanceWithResultResponse struct {
	ProcessInstanceKey   int64
	ProcessDefinitionKey int64
	BpmnProcessId        string
	Version              int32
	Variables            string
}

// --- CancelProcessInstance -----------------------------------------------

type CancelProcessInstanceRequest struct {
	ProcessInstanceKey int64
}

type CancelProcessInstanceResponse struct{}

// --- DeployResource -----------------------------------------------------

type Resource struct {
	Name    string
	Content []byte
}

type DeployResourceRequest struct {
	Resources []*Resource
}

type Deployment struct {
	BpmnProcessId        string
	Version              int32
	ProcessDefinitionKey int64
}

type DeployResourceResponse struct {
	Key         int64
	Deployments []*Deployment
}

// --- Topology -------------------------------------------------------

type TopologyRequest struct{}

type Partition struct {
	PartitionId int32
	Role        string
}

type BrokerInfo struct {
	NodeId     int32
	Host       string
	Port       int32
	Partitions []*Partition
}

type TopologyResponse struct {
	Brokers           []*BrokerInfo
	ClusterSize       int32
	PartitionsCount   int32
	ReplicationFactor int32
	GatewayVersion    string
}
