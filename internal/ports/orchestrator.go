package ports

import (
	"context"
	"time"
)

// RunState is the internal projection of an external engine state
// "State mapping").
type RunState string

const (
	RunStateIdle      RunState = "IDLE"
	RunStateScheduled RunState = "SCHEDULED"
	RunStateRunning   RunState = "RUNNING"
	RunStateSuccess   RunState = "SUCCESS"
	RunStateFinished  RunState = "FINISHED"
	RunStateFailed    RunState = "FAILED"
)

// RunSummary describes one run of a DAG.
type RunSummary struct {
	RunID     string
	DAGID     string
	State     RunState
	StartedAt time.Time
}

// Orchestrator authenticates against the external workflow engine and
// drives the DAG lifecycle. Implementations re-acquire a bearer
// token on 401 and never retry transient failures automatically; callers
// decide whether to retry.
type Orchestrator interface {
	// Register wait-polls the engine until dagID is known, bounded by a
	// timeout (default 10s, 500ms cadence).
	Register(ctx context.Context, dagID string) error
	Unpause(ctx context.Context, dagID string) error
	Trigger(ctx context.Context, dagID string) (runID string, err error)
	ListDAGs(ctx context.Context) ([]string, error)
	LatestRun(ctx context.Context, dagID string) (*RunSummary, error)
	// LastRunBatch returns, per dag id, the run with the greatest start time.
	LastRunBatch(ctx context.Context, dagIDs []string) (map[string]RunSummary, error)
	// TaskStates returns task_id -> external_state for one run.
	TaskStates(ctx context.Context, dagID, runID string) (map[string]string, error)
	// Delete removes the artifact file and deregisters the dag. A missing
	// file is not fatal.
	Delete(ctx context.Context, dagID string) error
}

// ProjectBlockState maps an external task state string to the
// per-block projection (has SCHEDULED).
func ProjectBlockState(external string) RunState {
	switch external {
	case "running":
		return RunStateRunning
	case "success":
		return RunStateSuccess
	case "failed":
		return RunStateFailed
	case "scheduled":
		return RunStateScheduled
	default:
		return RunStateIdle
	}
}

// ProjectWorkflowState maps an external run state string to the
// per-workflow projection (no SCHEDULED).
func ProjectWorkflowState(external string) RunState {
	switch external {
	case "running":
		return RunStateRunning
	case "success":
		return RunStateFinished
	case "failed":
		return RunStateFailed
	default:
		return RunStateIdle
	}
}
