// Package templateengine parses workflow templates, builds a template
// dependency graph, and instantiates a whole project (blocks, configured
// I/O, edges, canvas positions) from it.
package templateengine

import (
	"context"
	"fmt"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/domain/manifest"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/validation"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

const (
	levelWidth = 500.0
	rowHeight  = 400.0
)

// Engine instantiates projects from workflow templates.
type Engine struct {
	manifests ports.ManifestFetcher
	store     ports.GraphStore
	defaults  *defaultconfig.Provider
	logger    ports.Logger
}

// New returns an Engine.
func New(manifests ports.ManifestFetcher, store ports.GraphStore, defaults *defaultconfig.Provider, logger ports.Logger) *Engine {
	return &Engine{manifests: manifests, store: store, defaults: defaults, logger: logger}
}

// Instantiate materializes projectID from doc, per the five-step algorithm
// All persistence happens in one Graph-Store transaction: a
// failure anywhere rolls back the whole instantiation.
func (e *Engine) Instantiate(ctx context.Context, projectID string, doc Document) ([]ports.BlockView, error) {
	// Step 1: deduplicate block URLs, fetch manifests in bulk.
	manifestsByURL := make(map[string]manifest.BlockManifest)
	for _, b := range doc.Blocks {
		if _, ok := manifestsByURL[b.RepoURL]; ok {
			continue
		}
		m, err := e.manifests.Fetch(ctx, b.RepoURL)
		if err != nil {
			return nil, err
		}
		manifestsByURL[b.RepoURL] = m
	}

	// Step 2: build the template dependency graph from depends_on edges;
	// reject if cyclic.
	depGraph := graph.NewDependencyGraph()
	for _, b := range doc.Blocks {
		depGraph.AddNode(b.Name)
	}
	var templateEdges []ports.TemplateEdgeInput
	for _, b := range doc.Blocks {
		for _, in := range b.Inputs {
			if in.DependsOn == nil {
				continue
			}
			depGraph.AddEdge(in.DependsOn.Block, b.Name)
			templateEdges = append(templateEdges, ports.TemplateEdgeInput{
				UpstreamBlockName:   in.DependsOn.Block,
				UpstreamPortName:    in.DependsOn.Output,
				DownstreamBlockName: b.Name,
				DownstreamPortName:  in.Identifier,
			})
		}
	}
	if cycle := depGraph.DetectCycle(); cycle != nil {
		return nil, cperrors.NewTemplateCyclicError(cycle)
	}

	// Step 3: assign canvas positions by topological level.
	levels := depGraph.TopologicalLevels()
	position := make(map[string][2]float64)
	for levelIdx, nodes := range levels {
		for rowIdx, name := range nodes {
			position[name] = [2]float64{float64(levelIdx) * levelWidth, float64(rowIdx) * rowHeight}
		}
	}

	// Step 4: in topological order, build each block's persistence input.
	byName := make(map[string]TemplateBlock, len(doc.Blocks))
	for _, b := range doc.Blocks {
		byName[b.Name] = b
	}

	var inputs []ports.CreateBlockInput
	for _, level := range levels {
		for _, name := range level {
			tb := byName[name]
			m := manifestsByURL[tb.RepoURL]
			ep, ok := m.Entrypoints[tb.Entrypoint]
			if !ok {
				return nil, cperrors.NewTemplateInvalidError(fmt.Sprintf("block %q references unknown entrypoint %q", tb.Name, tb.Entrypoint), nil)
			}

			envs, err := mergeOverride("entrypoint:"+tb.Name, ep.Envs, toConfig(tb.Settings))
			if err != nil {
				return nil, err
			}

			blockInputs, err := e.buildPorts(tb.Name, ep.Inputs, tb.Inputs, false)
			if err != nil {
				return nil, err
			}
			blockOutputs, err := e.buildPorts(tb.Name, ep.Outputs, tb.Outputs, true)
			if err != nil {
				return nil, err
			}

			pos := position[name]
			inputs = append(inputs, ports.CreateBlockInput{
				ProjectID:      projectID,
				ManifestName:   m.Name,
				DisplayName:    tb.Name,
				Description:    m.Description,
				Author:         m.Author,
				Image:          m.Image,
				ManifestURL:    tb.RepoURL,
				X:              pos[0],
				Y:              pos[1],
				EntrypointName: ep.Name,
				EntrypointDesc: ep.Description,
				Envs:           envs,
				Inputs:         blockInputs,
				Outputs:        blockOutputs,
			})
		}
	}

	// Step 5: create blocks and template edges in one transaction.
	views, err := e.store.InstantiateTemplate(ctx, projectID, inputs, templateEdges)
	if err != nil {
		return nil, err
	}
	if e.logger != nil {
		e.logger.Info(ctx, "template instantiated", "project_id", projectID, "blocks", len(inputs), "edges", len(templateEdges))
	}
	return views, nil
}

// buildPorts merges each declared port's manifest config with the
// template's override (validating the override's keys are a subset of the
// manifest's), applying output defaults before the override is merged in.
func (e *Engine) buildPorts(blockName string, declared map[string]manifest.PortManifest, overrides []TemplateIO, isOutput bool) ([]ports.PortInput, error) {
	overrideByID := make(map[string]TemplateIO, len(overrides))
	for _, o := range overrides {
		overrideByID[o.Identifier] = o
	}

	result := make([]ports.PortInput, 0, len(declared))
	for id, pm := range declared {
		cfg := pm.Config
		if isOutput {
			if defaults, ok := e.defaults.Defaults(pm.DataType, id); ok {
				cfg = defaultconfig.ApplyDefaultSubstitution(pm.DataType, cfg, defaults)
			}
		}

		if o, ok := overrideByID[id]; ok {
			merged, err := mergeOverride(fmt.Sprintf("%s:%s", blockName, id), cfg, toConfig(o.Settings))
			if err != nil {
				return nil, err
			}
			cfg = merged
		}

		result = append(result, ports.PortInput{
			Name:        id,
			DataType:    pm.DataType,
			Description: pm.Description,
			Config:      cfg,
		})
	}
	return result, nil
}

func mergeOverride(owner string, base, override graph.Config) (graph.Config, error) {
	if len(override) == 0 {
		return base, nil
	}
	if err := validation.RequireKeySubset(owner, validation.ConfigKeySet(base), validation.ConfigKeySet(override)); err != nil {
		return nil, err
	}
	return base.Merge(override), nil
}
