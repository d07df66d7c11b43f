package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/scystream/control-plane/internal/blockingest"
	"github.com/scystream/control-plane/internal/configengine"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/events"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/templateengine"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// --- Projects -----------------------------------------------------------

type createProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		writeError(c, cperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	project, err := s.deps.Store.CreateProject(c.Request.Context(), req.Name, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) getProject(c *gin.Context) {
	project, err := s.deps.Store.GetProject(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	userID := c.GetHeader(userIDHeader)
	if userID == "" || !project.HasMember(userID) {
		writeError(c, cperrors.NewForbiddenError("caller is not a member of this project"))
		return
	}
	c.JSON(http.StatusOK, project)
}

// --- Blocks --------------------------------------------------------------

func (s *Server) listBlocks(c *gin.Context) {
	blocks, err := s.deps.Store.ProjectBlocks(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

type ingestBlockRequest struct {
	RepoURL        string  `json:"repo_url" binding:"required"`
	Entrypoint     string  `json:"entrypoint" binding:"required"`
	DisplayName    string  `json:"display_name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
}

func (s *Server) ingestBlock(c *gin.Context) {
	var req ingestBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}
	view, err := s.deps.Ingestor.Ingest(c.Request.Context(), blockingest.Params{
		ProjectID:      c.Param("project_id"),
		RepoURL:        req.RepoURL,
		EntrypointName: req.Entrypoint,
		DisplayName:    req.DisplayName,
		X:              req.X,
		Y:              req.Y,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	s.publish(c, events.NewBlockCreated(c.Param("project_id"), view.Block.ID))
	c.JSON(http.StatusCreated, view)
}

func (s *Server) deleteBlock(c *gin.Context) {
	blockID := c.Param("block_id")
	if err := s.deps.Store.DeleteBlock(c.Request.Context(), blockID); err != nil {
		writeError(c, err)
		return
	}
	s.publish(c, events.NewBlockDeleted(c.Param("project_id"), blockID))
	c.Status(http.StatusNoContent)
}

// --- Edges -----------------------------------------------------------------

type createEdgeRequest struct {
	UpstreamBlockID   string `json:"upstream_block_id" binding:"required"`
	UpstreamPortID    string `json:"upstream_port_id" binding:"required"`
	DownstreamBlockID string `json:"downstream_block_id" binding:"required"`
	DownstreamPortID  string `json:"downstream_port_id" binding:"required"`
	CustomConsent     bool   `json:"custom_consent"`
}

func (s *Server) createEdge(c *gin.Context) {
	var req createEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}

	portResults, err := s.deps.Store.Ports(c.Request.Context(), []string{req.UpstreamPortID, req.DownstreamPortID})
	if err != nil {
		writeError(c, err)
		return
	}
	upstream, downstream, err := resolveEdgePorts(portResults, req.UpstreamPortID, req.DownstreamPortID)
	if err != nil {
		writeError(c, err)
		return
	}

	err = s.deps.ConfigEngine.CreateEdge(c.Request.Context(), configengine.CreateEdgeParams{
		ProjectID:       c.Param("project_id"),
		Upstream:        upstream,
		UpstreamBlock:   req.UpstreamBlockID,
		Downstream:      downstream,
		DownstreamBlock: req.DownstreamBlockID,
		CustomConsent:   req.CustomConsent,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	s.publish(c, events.NewEdgeCreated(c.Param("project_id"), req.UpstreamPortID, req.DownstreamPortID))
	c.Status(http.StatusCreated)
}

func (s *Server) deleteEdge(c *gin.Context) {
	var req createEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}
	edge := graph.Edge{
		UpstreamBlockID:   req.UpstreamBlockID,
		UpstreamPortID:    req.UpstreamPortID,
		DownstreamBlockID: req.DownstreamBlockID,
		DownstreamPortID:  req.DownstreamPortID,
	}
	if err := s.deps.ConfigEngine.DeleteEdge(c.Request.Context(), edge); err != nil {
		writeError(c, err)
		return
	}
	s.publish(c, events.NewEdgeDeleted(c.Param("project_id")))
	c.Status(http.StatusNoContent)
}

func resolveEdgePorts(found []graph.Port, upstreamID, downstreamID string) (upstream, downstream graph.Port, err error) {
	byID := make(map[string]graph.Port, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	u, ok := byID[upstreamID]
	if !ok {
		return graph.Port{}, graph.Port{}, cperrors.NewNotFoundError("port", upstreamID)
	}
	d, ok := byID[downstreamID]
	if !ok {
		return graph.Port{}, graph.Port{}, cperrors.NewNotFoundError("port", downstreamID)
	}
	return u, d, nil
}

// --- Config mutation -------------------------------------------------------

type updatePortConfigRequest struct {
	Config map[string]wireValue `json:"config"`
}

func (s *Server) updatePortConfig(c *gin.Context) {
	portID := c.Param("port_id")
	var req updatePortConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}

	existingPorts, err := s.deps.Store.Ports(c.Request.Context(), []string{portID})
	if err != nil {
		writeError(c, err)
		return
	}
	if len(existingPorts) == 0 {
		writeError(c, cperrors.NewNotFoundError("port", portID))
		return
	}
	port := existingPorts[0]

	projectID := c.Param("project_id")
	blocks, err := s.deps.Store.ProjectBlocks(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	blockIDs := blockIDsOf(blocks)
	edges, err := s.deps.Store.ProjectEdges(c.Request.Context(), projectID, blockIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	downstreamPorts := allPorts(blocks)

	newConfig := toGraphConfig(req.Config)
	if err := s.deps.ConfigEngine.UpdatePortConfig(c.Request.Context(), port, newConfig, downstreamPorts, edges); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateEntrypointEnvsRequest struct {
	Envs map[string]wireValue `json:"envs"`
}

func (s *Server) updateEntrypointEnvs(c *gin.Context) {
	entrypointID := c.Param("entrypoint_id")
	var req updateEntrypointEnvsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, cperrors.NewUnprocessableError("invalid request body", err))
		return
	}
	existing, err := s.deps.Store.EntrypointEnvs(c.Request.Context(), entrypointID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.deps.ConfigEngine.UpdateEntrypointEnvs(c.Request.Context(), entrypointID, existing, toGraphConfig(req.Envs)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Template instantiation ------------------------------------------------

func (s *Server) instantiateTemplate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, cperrors.NewUnprocessableError("could not read request body", err))
		return
	}
	doc, err := templateengine.ParseDocument(body)
	if err != nil {
		writeError(c, cperrors.NewTemplateInvalidError(err.Error(), err))
		return
	}
	views, err := s.deps.Templates.Instantiate(c.Request.Context(), c.Param("project_id"), doc)
	if err != nil {
		writeError(c, err)
		return
	}
	for _, v := range views {
		s.publish(c, events.NewBlockCreated(c.Param("project_id"), v.Block.ID))
	}
	c.JSON(http.StatusCreated, views)
}

// --- Config view (four-bucket split) -----------------------------------

// configView is the four-bucket split of a project's configuration state.
type configView struct {
	UnconfiguredEnvs []configItem `json:"unconfigured_envs"`
	WorkflowInputs   []configItem `json:"workflow_inputs"`
	Intermediates    []configItem `json:"intermediates"`
	WorkflowOutputs  []configItem `json:"workflow_outputs"`
}

type configItem struct {
	BlockID string `json:"block_id"`
	PortID  string `json:"port_id,omitempty"`
	Name    string `json:"name"`
}

func (s *Server) projectConfigView(c *gin.Context) {
	projectID := c.Param("project_id")
	blocks, err := s.deps.Store.ProjectBlocks(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	blockIDs := blockIDsOf(blocks)
	edges, err := s.deps.Store.ProjectEdges(c.Request.Context(), projectID, blockIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	hasUpstream := make(map[string]bool)
	hasDownstream := make(map[string]bool)
	for _, e := range edges {
		hasDownstream[e.UpstreamPortID] = true
		hasUpstream[e.DownstreamPortID] = true
	}

	view := configView{}
	for _, b := range blocks {
		if isUnconfigured(b.Entrypoint.Envs) {
			view.UnconfiguredEnvs = append(view.UnconfiguredEnvs, configItem{BlockID: b.Block.ID, Name: b.Entrypoint.Name})
		}
		for _, p := range b.Ports {
			switch p.Direction {
			case graph.DirectionInput:
				if !hasUpstream[p.ID] {
					view.WorkflowInputs = append(view.WorkflowInputs, configItem{BlockID: b.Block.ID, PortID: p.ID, Name: p.Name})
				} else if p.DataType == graph.DataTypeCustom && configHasUnconfigured(p.Config) {
					view.Intermediates = append(view.Intermediates, configItem{BlockID: b.Block.ID, PortID: p.ID, Name: p.Name})
				}
			case graph.DirectionOutput:
				if !hasDownstream[p.ID] {
					view.WorkflowOutputs = append(view.WorkflowOutputs, configItem{BlockID: b.Block.ID, PortID: p.ID, Name: p.Name})
				} else {
					view.Intermediates = append(view.Intermediates, configItem{BlockID: b.Block.ID, PortID: p.ID, Name: p.Name})
				}
			}
		}
	}
	c.JSON(http.StatusOK, view)
}

func isUnconfigured(cfg graph.Config) bool {
	if len(cfg) == 0 {
		return true
	}
	return configHasUnconfigured(cfg)
}

func configHasUnconfigured(cfg graph.Config) bool {
	for _, v := range cfg {
		if v.IsUnconfigured() {
			return true
		}
	}
	return false
}

// --- Run launch & status -----------------------------------------------------

func (s *Server) launchRun(c *gin.Context) {
	projectID := c.Param("project_id")

	blocks, err := s.deps.Store.ProjectBlocks(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(blocks) == 0 {
		writeError(c, cperrors.NewEmptyProjectError(projectID))
		return
	}

	if missing := missingConfig(blocks); len(missing) > 0 {
		err := cperrors.NewMissingConfigError(missing)
		s.publish(c, events.NewRunFailed(projectID, "missing_config"))
		writeError(c, err)
		return
	}

	path, err := s.deps.Compiler.Compile(c.Request.Context(), projectID)
	if err != nil {
		s.publish(c, events.NewRunFailed(projectID, "compile"))
		writeError(c, err)
		return
	}

	dagID := dagIDFromArtifactPath(path)
	ctx := c.Request.Context()
	if err := s.deps.Orchestrator.Register(ctx, dagID); err != nil {
		s.publish(c, events.NewRunFailed(projectID, "register"))
		writeError(c, err)
		return
	}
	if err := s.deps.Orchestrator.Unpause(ctx, dagID); err != nil {
		s.publish(c, events.NewRunFailed(projectID, "unpause"))
		writeError(c, err)
		return
	}
	runID, err := s.deps.Orchestrator.Trigger(ctx, dagID)
	if err != nil {
		s.publish(c, events.NewRunFailed(projectID, "trigger"))
		writeError(c, err)
		return
	}

	s.publish(c, events.NewRunTriggered(projectID, runID, dagID))
	c.JSON(http.StatusAccepted, gin.H{"dag_id": dagID, "run_id": runID})
}

// missingConfig implements the run-launch validation step: every
// block's entrypoint envs and connected/terminal port configs must be fully
// populated. A value is "missing" by the same unconfigured rule used by the
// config-view split.
func missingConfig(blocks []ports.BlockView) []cperrors.MissingConfig {
	var out []cperrors.MissingConfig
	for _, b := range blocks {
		var keys []string
		for k, v := range b.Entrypoint.Envs {
			if v.IsUnconfigured() {
				keys = append(keys, k)
			}
		}
		for _, p := range b.Ports {
			for k, v := range p.Config {
				if v.IsUnconfigured() {
					keys = append(keys, p.Name+"."+k)
				}
			}
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			out = append(out, cperrors.MissingConfig{BlockID: b.Block.ID, MissingKeys: keys})
		}
	}
	return out
}

func (s *Server) latestRun(c *gin.Context) {
	projectID := c.Param("project_id")
	path := s.deps.Compiler.ArtifactPath(projectID)
	dagID := dagIDFromArtifactPath(path)
	run, err := s.deps.Orchestrator.LatestRun(c.Request.Context(), dagID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) taskStates(c *gin.Context) {
	projectID := c.Param("project_id")
	runID := c.Param("run_id")
	path := s.deps.Compiler.ArtifactPath(projectID)
	dagID := dagIDFromArtifactPath(path)

	states, err := s.deps.Orchestrator.TaskStates(c.Request.Context(), dagID, runID)
	if err != nil {
		writeError(c, err)
		return
	}
	blocks, err := s.deps.Store.ProjectBlocks(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectBlockStates(blocks, states))
}

// projectBlockStates maps task ids back to block ids and projects each
// external state onto the per-block enum.
func projectBlockStates(blocks []ports.BlockView, taskStates map[string]string) map[string]ports.RunState {
	out := make(map[string]ports.RunState, len(blocks))
	for _, b := range blocks {
		taskID := "task_" + underscored(b.Block.ID)
		out[b.Block.ID] = ports.ProjectBlockState(taskStates[taskID])
	}
	return out
}

// --- Artifacts --------------------------------------------------------------

func (s *Server) locateArtifacts(c *gin.Context) {
	located, err := s.deps.Locator.Locate(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, located)
}

// --- helpers -----------------------------------------------------------------

func blockIDsOf(blocks []ports.BlockView) []string {
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.Block.ID)
	}
	return ids
}

func allPorts(blocks []ports.BlockView) []graph.Port {
	var out []graph.Port
	for _, b := range blocks {
		out = append(out, b.Ports...)
	}
	return out
}

func dagIDFromArtifactPath(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	const prefix, suffix = "dag_", ".py"
	if len(base) > len(prefix)+len(suffix) {
		return base[len(prefix) : len(base)-len(suffix)]
	}
	return base
}

func underscored(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			out[i] = '_'
		} else {
			out[i] = id[i]
		}
	}
	return string(out)
}

func (s *Server) publish(c *gin.Context, event ports.DomainEvent) {
	if s.deps.Events == nil {
		return
	}
	_ = s.deps.Events.Publish(c.Request.Context(), event)
}
