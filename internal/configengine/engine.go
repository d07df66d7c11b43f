// Package configengine implements the control logic that guards every
// mutation of a config map: default assignment on manifest ingestion, edge
// creation and deletion, port-config update cascade, and entrypoint envs
// update.
package configengine

import (
	"context"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/validation"
)

// Engine applies configuration-propagation rules on top of a GraphStore.
type Engine struct {
	store    ports.GraphStore
	defaults *defaultconfig.Provider
	logger   ports.Logger
}

// New returns an Engine.
func New(store ports.GraphStore, defaults *defaultconfig.Provider, logger ports.Logger) *Engine {
	return &Engine{store: store, defaults: defaults, logger: logger}
}

// ApplyOutputDefaults overwrites, within an OUTPUT port's config, the keys
// that match default keys (by substring rule) with generated defaults, for
// data_type FILE or PGTABLE; a no-op for CUSTOM. Manifest ingestion does not
// call it: blockingest applies the same substitution through defaultconfig.
func (e *Engine) ApplyOutputDefaults(ioName string, port graph.Port) graph.Config {
	defaults, ok := e.defaults.Defaults(port.DataType, ioName)
	if !ok {
		return port.Config
	}
	return defaultconfig.ApplyDefaultSubstitution(port.DataType, port.Config, defaults)
}

// CreateEdgeParams is the input to CreateEdge.
type CreateEdgeParams struct {
	ProjectID       string
	Upstream        graph.Port
	UpstreamBlock   string
	Downstream      graph.Port
	DownstreamBlock string
	CustomConsent   bool
}

// CreateEdge validates endpoints, inserts the edge row, and (for non-CUSTOM
// types) propagates the upstream's default values into the downstream's
// matching keys.
func (e *Engine) CreateEdge(ctx context.Context, p CreateEdgeParams) error {
	if err := graph.ValidateEdgeEndpoints(&p.Upstream, &p.Downstream, p.CustomConsent); err != nil {
		return err
	}

	edge := graph.Edge{
		UpstreamBlockID:   p.UpstreamBlock,
		UpstreamPortID:    p.Upstream.ID,
		DownstreamBlockID: p.DownstreamBlock,
		DownstreamPortID:  p.Downstream.ID,
	}

	downstreamConfig := p.Downstream.Config
	if p.Upstream.DataType != graph.DataTypeCustom {
		values := e.defaults.ExtractDefaults(p.Upstream.DataType, p.Upstream.Config)
		downstreamConfig = defaultconfig.ApplyDefaultSubstitution(p.Upstream.DataType, p.Downstream.Config, values)
	}

	if err := e.store.CreateEdge(ctx, edge, downstreamConfig); err != nil {
		return err
	}
	if e.logger != nil {
		e.logger.Info(ctx, "edge created", "project_id", p.ProjectID, "upstream_port", p.Upstream.ID, "downstream_port", p.Downstream.ID)
	}
	return nil
}

// DeleteEdge removes the edge row only. Downstream config is never
// un-propagated on delete: it may have been further edited since the edge
// was created, and reverting it would discard that edit.
func (e *Engine) DeleteEdge(ctx context.Context, edge graph.Edge) error {
	return e.store.DeleteEdge(ctx, edge)
}

// UpdatePortConfig merges newConfig into port's existing config (newConfig's
// keys must be a subset of the existing ones), then cascades the result to
// every downstream input, but only when the port is a typed (FILE/PGTABLE)
// OUTPUT; CUSTOM outputs never cascade.
func (e *Engine) UpdatePortConfig(ctx context.Context, port graph.Port, newConfig graph.Config, downstream []graph.Port, downstreamEdges []graph.Edge) error {
	if err := validation.RequireKeySubset("port:"+port.ID, validation.ConfigKeySet(port.Config), validation.ConfigKeySet(newConfig)); err != nil {
		return err
	}

	merged := port.Config.Merge(newConfig)

	cascade := map[string]graph.Config{}
	if port.Direction == graph.DirectionOutput && graph.PropagatesOnOutputUpdate(port.DataType) {
		values := e.defaults.ExtractDefaults(port.DataType, merged)
		downstreamByID := make(map[string]graph.Port, len(downstream))
		for _, d := range downstream {
			downstreamByID[d.ID] = d
		}
		for _, edge := range downstreamEdges {
			if edge.UpstreamPortID != port.ID {
				continue
			}
			target, ok := downstreamByID[edge.DownstreamPortID]
			if !ok {
				continue
			}
			cascade[target.ID] = defaultconfig.ApplyDefaultSubstitution(port.DataType, target.Config, values)
		}
	}

	return e.store.UpdatePortConfig(ctx, port.ID, merged, cascade)
}

// UpdateEntrypointEnvs merges newEnvs into existing; newEnvs's keys must be
// a subset of the existing ones. There is no cascade: entrypoint envs never
// flow across edges.
func (e *Engine) UpdateEntrypointEnvs(ctx context.Context, entrypointID string, existing, newEnvs graph.Config) error {
	if err := validation.RequireKeySubset("entrypoint:"+entrypointID, validation.ConfigKeySet(existing), validation.ConfigKeySet(newEnvs)); err != nil {
		return err
	}
	return e.store.UpdateEntrypointEnvs(ctx, entrypointID, existing.Merge(newEnvs))
}
