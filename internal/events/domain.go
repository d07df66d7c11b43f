package events

import "github.com/scystream/control-plane/internal/ports"

// domainEvent is the concrete ports.DomainEvent built by the New* helpers
// below. Call sites construct one of these instead of hand-rolling a
// map[string]interface{} payload per publish, so the shape of every event
// this control plane emits lives in one place.
type domainEvent struct {
	eventType string
	payload   interface{}
}

func (e domainEvent) EventType() string    { return e.eventType }
func (e domainEvent) Payload() interface{} { return e.payload }

// fielder lets a payload contribute its own key/value pairs to the
// structured log line Publish writes, the same shape already supported for
// raw map[string]interface{} payloads.
type fielder interface {
	logFields() []interface{}
}

// BlockCreatedPayload is the payload of ports.EventBlockCreated.
type BlockCreatedPayload struct {
	ProjectID string
	BlockID   string
}

func (p BlockCreatedPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID, "block_id", p.BlockID}
}

// NewBlockCreated builds the event fired when a block is persisted, whether
// from a manifest fetch (Module A) or template instantiation (Module E).
func NewBlockCreated(projectID, blockID string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventBlockCreated, payload: BlockCreatedPayload{ProjectID: projectID, BlockID: blockID}}
}

// BlockDeletedPayload is the payload of ports.EventBlockDeleted.
type BlockDeletedPayload struct {
	ProjectID string
	BlockID   string
}

func (p BlockDeletedPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID, "block_id", p.BlockID}
}

// NewBlockDeleted builds the event fired once a block and its cascade
// (entrypoint, ports, incident edges) have been removed.
func NewBlockDeleted(projectID, blockID string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventBlockDeleted, payload: BlockDeletedPayload{ProjectID: projectID, BlockID: blockID}}
}

// EdgeCreatedPayload is the payload of ports.EventEdgeCreated.
type EdgeCreatedPayload struct {
	ProjectID        string
	UpstreamPortID   string
	DownstreamPortID string
}

func (p EdgeCreatedPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID, "upstream_port_id", p.UpstreamPortID, "downstream_port_id", p.DownstreamPortID}
}

// NewEdgeCreated builds the event fired after the Configuration Engine
// commits a new edge (and its downstream config cascade, if any).
func NewEdgeCreated(projectID, upstreamPortID, downstreamPortID string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventEdgeCreated, payload: EdgeCreatedPayload{
		ProjectID: projectID, UpstreamPortID: upstreamPortID, DownstreamPortID: downstreamPortID,
	}}
}

// EdgeDeletedPayload is the payload of ports.EventEdgeDeleted.
type EdgeDeletedPayload struct {
	ProjectID string
}

func (p EdgeDeletedPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID}
}

// NewEdgeDeleted builds the event fired once an edge row is removed. Per
// the Configuration Engine's delete semantics, no config is un-propagated.
func NewEdgeDeleted(projectID string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventEdgeDeleted, payload: EdgeDeletedPayload{ProjectID: projectID}}
}

// RunTriggeredPayload is the payload of ports.EventRunTriggered.
type RunTriggeredPayload struct {
	ProjectID string
	RunID     string
	DagID     string
}

func (p RunTriggeredPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID, "run_id", p.RunID, "dag_id", p.DagID}
}

// NewRunTriggered builds the event fired once the full run-launch sequence
// (compile, register, unpause, trigger) completes successfully.
func NewRunTriggered(projectID, runID, dagID string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventRunTriggered, payload: RunTriggeredPayload{ProjectID: projectID, RunID: runID, DagID: dagID}}
}

// RunFailedPayload is the payload of ports.EventRunFailed. Reason names the
// run-launch step that failed: "missing_config", "compile", "register",
// "unpause", or "trigger".
type RunFailedPayload struct {
	ProjectID string
	Reason    string
}

func (p RunFailedPayload) logFields() []interface{} {
	return []interface{}{"project_id", p.ProjectID, "reason", p.Reason}
}

// NewRunFailed builds the event fired when any step of the run-launch
// sequence fails.
func NewRunFailed(projectID, reason string) ports.DomainEvent {
	return domainEvent{eventType: ports.EventRunFailed, payload: RunFailedPayload{ProjectID: projectID, Reason: reason}}
}
