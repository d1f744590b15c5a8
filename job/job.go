// Package job defines the Job value delivered by the gateway for a single
// activation, and the JobController collaborator used to report its
// terminal outcome.
//
// A Job is immutable after creation: the fields below are populated once,
// when the poller decodes an activation off the gRPC stream, and never
// written again. Decorators that want to adjust what the handler sees
// return a new *Job (usually a shallow copy with Variables replaced)
// rather than mutating the one they were given.
package job

import (
	"encoding/json"
	"time"
)

// Job is the per-activation record produced by the gateway for one unit
// of work. Its lifetime runs from stream delivery to the terminal status
// report made through its paired JobController.
type Job struct {
	// Key uniquely identifies this activation. 64-bit, assigned by the
	// gateway.
	Key int64
	// Type is the job type this activation matches; equal to the
	// task.Config.Type it was routed to.
	Type string
	// ProcessInstanceKey identifies the running process instance that
	// emitted this job.
	ProcessInstanceKey int64
	// BPMNProcessID is the process definition's BPMN id.
	BPMNProcessID string
	// ProcessDefinitionVersion is the deployed version of the process
	// definition.
	ProcessDefinitionVersion int32
	// ProcessDefinitionKey identifies the process definition.
	ProcessDefinitionKey int64
	// ElementID is the BPMN element id of the task that emitted this job.
	ElementID string
	// ElementInstanceKey identifies the running element instance.
	ElementInstanceKey int64
	// Worker is this worker's declared name, as sent in the activation
	// request.
	Worker string
	// Retries is the decreasing counter maintained by the gateway. A
	// fail_job report does not decrement it directly — the gateway's own
	// policy does, based on the retries value the report carries.
	Retries int32
	// Deadline is when the activation lease expires. Exceeding it causes
	// the gateway to redeliver the job elsewhere.
	Deadline time.Time
	// TenantID partitions this job in a multi-tenant gateway. Empty when
	// tenancy is not in use.
	TenantID string
	// Variables holds the raw JSON object the gateway attached, limited
	// to the task's configured variables_to_fetch. Use Decode to bind it
	// to a typed value.
	Variables json.RawMessage
	// CustomHeaders carries task metadata set at BPMN authoring time.
	CustomHeaders map[string]string
}

// Decode unmarshals Variables into v, which should be a pointer to a
// struct or map. It is the executor's "decode variables" step; decode
// errors are routed to the exception handler as an InvalidPayloadError,
// never silently dropped.
func (j *Job) Decode(v any) error {
	if len(j.Variables) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(j.Variables, v)
}

// WithVariables returns a shallow copy of j with Variables replaced. Used
// by decorators that need to mutate the job a handler will see without
// touching the original.
func (j *Job) WithVariables(raw json.RawMessage) *Job {
	cp := *j
	cp.Variables = raw
	return &cp
}

// DeadlineMillis returns Deadline as epoch milliseconds, the wire
// representation the gateway uses.
func (j *Job) DeadlineMillis() int64 {
	return j.Deadline.UnixMilli()
}
