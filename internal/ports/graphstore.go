package ports

import (
	"context"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// GraphStore persists and retrieves projects, blocks, entrypoints, ports,
// and edges with referential integrity. All multi-row writes occur
// in a single atomic unit; a failure at any step leaves the store
// unchanged. Implementations translate relational integrity violations into
// pkg/errors.ConflictError (unique/foreign-key) or
// pkg/errors.UnprocessableError (not-null).
type GraphStore interface {
	// CreateProject persists a new project owned by creatorUserID.
	CreateProject(ctx context.Context, name string, creatorUserID string) (*graph.Project, error)
	// GetProject fetches a project by id, or pkg/errors.NotFoundError.
	GetProject(ctx context.Context, id string) (*graph.Project, error)
	// ListProjects fetches every project, used by the project-wide status
	// stream to know which dags to poll.
	ListProjects(ctx context.Context) ([]graph.Project, error)
	// ProjectBlocks fetches every block of a project eagerly joined with its
	// selected entrypoint and ports, ordered by port data_type (FILE <
	// PGTABLE < CUSTOM) then port name.
	ProjectBlocks(ctx context.Context, projectID string) ([]BlockView, error)
	// ProjectEdges fetches edges touching any of blockIDs.
	ProjectEdges(ctx context.Context, projectID string, blockIDs []string) ([]graph.Edge, error)

	// CreateBlock persists a block with its entrypoint and ports
	// (outputs pre-filled by default config) in one transaction.
	CreateBlock(ctx context.Context, input CreateBlockInput) (*BlockView, error)
	// DeleteBlock cascades to the block's entrypoint, ports, and every
	// incident edge.
	DeleteBlock(ctx context.Context, blockID string) error

	// Ports fetches ports by id.
	Ports(ctx context.Context, portIDs []string) ([]graph.Port, error)
	// EntrypointEnvs fetches an entrypoint's envs config.
	EntrypointEnvs(ctx context.Context, entrypointID string) (graph.Config, error)

	// CreateEdge inserts the edge row and, when non-CUSTOM, overwrites the
	// downstream port's matching default keys in the same transaction.
	CreateEdge(ctx context.Context, edge graph.Edge, downstreamConfig graph.Config) error
	// DeleteEdge removes the edge row only; it never un-propagates
	// configuration.
	DeleteEdge(ctx context.Context, edge graph.Edge) error

	// UpdatePortConfig replaces the port's config with newConfig (callers
	// pass the already-merged config). cascadeTargets (if non-nil) carries the downstream port ids and their
	// recomputed configs to update in the same transaction.
	UpdatePortConfig(ctx context.Context, portID string, newConfig graph.Config, cascadeTargets map[string]graph.Config) error
	// UpdateEntrypointEnvs replaces the entrypoint's envs with newEnvs
	// (callers pass the already-merged envs); no cascade.
	UpdateEntrypointEnvs(ctx context.Context, entrypointID string, newEnvs graph.Config) error

	// InstantiateTemplate creates every block and edge of a template
	// instantiation atomically; a failure leaves zero new blocks and zero
	// new edges. Edges reference blocks/ports by the template-local names
	// used in blocks (DisplayName, port Name) since surrogate ids do not
	// exist until the blocks in this same call are persisted.
	InstantiateTemplate(ctx context.Context, projectID string, blocks []CreateBlockInput, edges []TemplateEdgeInput) ([]BlockView, error)
}

// TemplateEdgeInput names an edge to create during template instantiation
// by block/port name rather than by surrogate id.
type TemplateEdgeInput struct {
	UpstreamBlockName    string
	UpstreamPortName     string
	DownstreamBlockName  string
	DownstreamPortName   string
	CustomConsent        bool
}

// BlockView is a block eagerly joined with its selected entrypoint and
// ports, the shape returned by read queries.
type BlockView struct {
	Block      graph.Block
	Entrypoint graph.Entrypoint
	Ports      []graph.Port
}

// CreateBlockInput is the payload for creating one block, whether from a
// manifest fetch or a template.
type CreateBlockInput struct {
	ProjectID      string
	ManifestName   string
	DisplayName    string
	Description    string
	Author         string
	Image          string
	ManifestURL    string
	X, Y           float64
	EntrypointName string
	EntrypointDesc string
	Envs           graph.Config
	Inputs         []PortInput
	Outputs        []PortInput
}

// PortInput is the payload for creating one port on a block's entrypoint.
type PortInput struct {
	Name        string
	DataType    graph.DataType
	Description string
	Config      graph.Config
}
