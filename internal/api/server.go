// Package api is the Workflow API Surface: a gin REST layer plus two
// WebSocket status channels. Its only design-level responsibilities are
// translating domain errors to the user-visible taxonomy, enforcing
// project membership per request, and splitting configuration retrieval
// into the four categorized buckets. Request routing and authentication
// middleware themselves are thin, per-repo glue and not part of the core
// design.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scystream/control-plane/internal/artifact"
	"github.com/scystream/control-plane/internal/blockingest"
	"github.com/scystream/control-plane/internal/configengine"
	"github.com/scystream/control-plane/internal/dagcompiler"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/templateengine"
)

// Dependencies are the components the Workflow API Surface orchestrates.
type Dependencies struct {
	Store        ports.GraphStore
	ConfigEngine *configengine.Engine
	Ingestor     *blockingest.Ingestor
	Templates    *templateengine.Engine
	Compiler     *dagcompiler.Compiler
	Orchestrator ports.Orchestrator
	Locator      *artifact.Locator
	Events       ports.EventPublisher
	Logger       ports.Logger

	// StatusPollInterval is the cadence of both WebSocket status channels
	// (default 2s).
	StatusPollInterval time.Duration
}

// Server holds the dependencies every handler closes over.
type Server struct {
	deps Dependencies
}

// NewRouter builds the gin engine with every route of the Workflow API wired in.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.StatusPollInterval == 0 {
		deps.StatusPollInterval = 2 * time.Second
	}
	s := &Server{deps: deps}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestIDMiddleware(), s.loggingMiddleware())

	r.POST("/projects", s.createProject)
	r.GET("/projects/:project_id", s.getProject)

	projects := r.Group("/projects/:project_id")
	projects.Use(s.membershipMiddleware())
	{
		projects.GET("/blocks", s.listBlocks)
		projects.POST("/blocks", s.ingestBlock)
		projects.DELETE("/blocks/:block_id", s.deleteBlock)

		projects.POST("/edges", s.createEdge)
		projects.DELETE("/edges", s.deleteEdge)

		projects.PATCH("/ports/:port_id", s.updatePortConfig)
		projects.PATCH("/entrypoints/:entrypoint_id/envs", s.updateEntrypointEnvs)
		projects.GET("/config", s.projectConfigView)

		projects.POST("/template", s.instantiateTemplate)

		projects.POST("/run", s.launchRun)
		projects.GET("/run/latest", s.latestRun)
		projects.GET("/runs/:run_id/tasks", s.taskStates)

		projects.GET("/artifacts", s.locateArtifacts)
	}

	r.GET("/workflow/ws/project_status", s.projectStatusWebsocket)
	r.GET("/workflow/ws/workflow_status/:project_id", s.membershipMiddleware(), s.workflowStatusWebsocket)

	return r
}
