package api

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/scystream/control-plane/internal/ports"
)

// projectStatusMessage is one tick of the project-wide status channel:
// every project's latest workflow (run) state ("workflow" projection,
// no SCHEDULED).
type projectStatusMessage struct {
	ProjectID string         `json:"project_id"`
	State     ports.RunState `json:"state"`
}

// workflowStatusMessage is one tick of the per-workflow status channel: the
// per-block projection (has SCHEDULED) for one project.
type workflowStatusMessage struct {
	BlockStates map[string]ports.RunState `json:"block_states"`
}

// projectStatusWebsocket serves /workflow/ws/project_status: a fan-out of
// run states across every project, polled at StatusPollInterval
// default 2s). The connection closes with a server-error code on
// unrecoverable upstream failure.
func (s *Server) projectStatusWebsocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request.Context())
	ticker := time.NewTicker(s.deps.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushProjectStatus(ctx, conn); err != nil {
				s.closeWithError(ctx, conn, err)
				return
			}
		}
	}
}

func (s *Server) pushProjectStatus(ctx context.Context, conn *websocket.Conn) error {
	projects, err := s.deps.Store.ListProjects(ctx)
	if err != nil {
		return err
	}
	dagIDs := make([]string, 0, len(projects))
	dagIDToProject := make(map[string]string, len(projects))
	for _, p := range projects {
		dagID := dagIDFromArtifactPath(s.deps.Compiler.ArtifactPath(p.ID))
		dagIDs = append(dagIDs, dagID)
		dagIDToProject[dagID] = p.ID
	}
	if len(dagIDs) == 0 {
		return nil
	}

	runs, err := s.deps.Orchestrator.LastRunBatch(ctx, dagIDs)
	if err != nil {
		return err
	}
	for dagID, projectID := range dagIDToProject {
		run, ok := runs[dagID]
		state := ports.RunStateIdle
		if ok {
			state = run.State
		}
		if err := wsjson.Write(ctx, conn, projectStatusMessage{ProjectID: projectID, State: state}); err != nil {
			return err
		}
	}
	return nil
}

// workflowStatusWebsocket serves /workflow/ws/workflow_status/{project_id}:
// per-block state for one project, polled at StatusPollInterval.
func (s *Server) workflowStatusWebsocket(c *gin.Context) {
	projectID := c.Param("project_id")

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request.Context())
	ticker := time.NewTicker(s.deps.StatusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pushWorkflowStatus(ctx, conn, projectID); err != nil {
				s.closeWithError(ctx, conn, err)
				return
			}
		}
	}
}

func (s *Server) pushWorkflowStatus(ctx context.Context, conn *websocket.Conn, projectID string) error {
	blocks, err := s.deps.Store.ProjectBlocks(ctx, projectID)
	if err != nil {
		return err
	}
	dagID := dagIDFromArtifactPath(s.deps.Compiler.ArtifactPath(projectID))
	run, err := s.deps.Orchestrator.LatestRun(ctx, dagID)
	if err != nil {
		return err
	}
	states := map[string]string{}
	if run != nil {
		states, err = s.deps.Orchestrator.TaskStates(ctx, dagID, run.RunID)
		if err != nil {
			return err
		}
	}
	return wsjson.Write(ctx, conn, workflowStatusMessage{BlockStates: projectBlockStates(blocks, states)})
}

func (s *Server) closeWithError(ctx context.Context, conn *websocket.Conn, err error) {
	if s.deps.Logger != nil {
		s.deps.Logger.Warn(ctx, "status stream closed on upstream failure", "error", err)
	}
	_ = conn.Close(websocket.StatusInternalError, "upstream failure")
}
