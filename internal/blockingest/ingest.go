// Package blockingest wires the Manifest Loader, Default-Config Provider,
// and Graph Store into the single operation the Workflow API Surface
// exposes as "add block to project": fetch a manifest, normalize it, and
// persist it with deterministic default configuration (data flow
// "Ingest manifest (A) -> normalize + defaults (B) -> persist (C)").
package blockingest

import (
	"context"
	"fmt"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/manifest"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// Ingestor fetches and persists one block from its manifest.
type Ingestor struct {
	manifests ports.ManifestFetcher
	store     ports.GraphStore
	defaults  *defaultconfig.Provider
	logger    ports.Logger
}

// New returns an Ingestor.
func New(manifests ports.ManifestFetcher, store ports.GraphStore, defaults *defaultconfig.Provider, logger ports.Logger) *Ingestor {
	return &Ingestor{manifests: manifests, store: store, defaults: defaults, logger: logger}
}

// Params is the caller-supplied placement and entrypoint selection for a
// new block.
type Params struct {
	ProjectID      string
	RepoURL        string
	EntrypointName string
	DisplayName    string // defaults to the manifest name when empty
	X, Y           float64
}

// Ingest fetches RepoURL's manifest, selects EntrypointName, applies output
// defaults, and persists the block.
func (i *Ingestor) Ingest(ctx context.Context, p Params) (*ports.BlockView, error) {
	m, err := i.manifests.Fetch(ctx, p.RepoURL)
	if err != nil {
		return nil, err
	}

	ep, ok := m.Entrypoints[p.EntrypointName]
	if !ok {
		return nil, cperrors.NewManifestInvalidError(p.RepoURL, fmt.Errorf("unknown entrypoint %q", p.EntrypointName))
	}

	displayName := p.DisplayName
	if displayName == "" {
		displayName = m.Name
	}

	view, err := i.store.CreateBlock(ctx, ports.CreateBlockInput{
		ProjectID:      p.ProjectID,
		ManifestName:   m.Name,
		DisplayName:    displayName,
		Description:    m.Description,
		Author:         m.Author,
		Image:          m.Image,
		ManifestURL:    p.RepoURL,
		X:              p.X,
		Y:              p.Y,
		EntrypointName: ep.Name,
		EntrypointDesc: ep.Description,
		Envs:           ep.Envs,
		Inputs:         buildPorts(ep.Inputs, nil),
		Outputs:        buildPorts(ep.Outputs, i.defaults),
	})
	if err != nil {
		return nil, err
	}
	if i.logger != nil {
		i.logger.Info(ctx, "block ingested", "project_id", p.ProjectID, "repo_url", p.RepoURL, "block_id", view.Block.ID)
	}
	return view, nil
}

// buildPorts converts declared manifest ports to persistence inputs. When
// defaults is non-nil (outputs only), defaultizable keys are substituted.
func buildPorts(declared map[string]manifest.PortManifest, defaults *defaultconfig.Provider) []ports.PortInput {
	result := make([]ports.PortInput, 0, len(declared))
	for id, pm := range declared {
		cfg := pm.Config
		if defaults != nil {
			if values, ok := defaults.Defaults(pm.DataType, id); ok {
				cfg = defaultconfig.ApplyDefaultSubstitution(pm.DataType, cfg, values)
			}
		}
		result = append(result, ports.PortInput{
			Name:        id,
			DataType:    pm.DataType,
			Description: pm.Description,
			Config:      cfg,
		})
	}
	return result
}
