package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
)

// InstantiateTemplate creates every block and edge of a template
// instantiation atomically: all-or-nothing, no partial writes.
// Edges are resolved from template-local block/port names to the surrogate
// ids assigned within this same transaction.
func (s *Store) InstantiateTemplate(ctx context.Context, projectID string, blocks []ports.CreateBlockInput, edges []ports.TemplateEdgeInput) ([]ports.BlockView, error) {
	var views []ports.BlockView
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		views = make([]ports.BlockView, 0, len(blocks))
		nameToView := make(map[string]*ports.BlockView, len(blocks))

		for _, input := range blocks {
			var view ports.BlockView
			if err := createBlockTx(ctx, tx, input, &view); err != nil {
				return err
			}
			views = append(views, view)
		}
		for i := range views {
			nameToView[views[i].Block.DisplayName] = &views[i]
		}

		for _, e := range edges {
			upstreamView, ok := nameToView[e.UpstreamBlockName]
			if !ok {
				return fmt.Errorf("template edge references unknown block %q", e.UpstreamBlockName)
			}
			downstreamView, ok := nameToView[e.DownstreamBlockName]
			if !ok {
				return fmt.Errorf("template edge references unknown block %q", e.DownstreamBlockName)
			}
			upstreamPort, err := findPort(upstreamView.Ports, graph.DirectionOutput, e.UpstreamPortName)
			if err != nil {
				return err
			}
			downstreamPort, err := findPort(downstreamView.Ports, graph.DirectionInput, e.DownstreamPortName)
			if err != nil {
				return err
			}

			if err := graph.ValidateEdgeEndpoints(upstreamPort, downstreamPort, e.CustomConsent); err != nil {
				return err
			}

			downstreamConfig := downstreamPort.Config
			if upstreamPort.DataType != graph.DataTypeCustom {
				values := s.defaults.ExtractDefaults(upstreamPort.DataType, upstreamPort.Config)
				downstreamConfig = defaultconfig.ApplyDefaultSubstitution(upstreamPort.DataType, downstreamPort.Config, values)
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO edges (upstream_block_id, upstream_port_id, downstream_block_id, downstream_port_id)
				VALUES ($1, $2, $3, $4)`,
				upstreamView.Block.ID, upstreamPort.ID, downstreamView.Block.ID, downstreamPort.ID); err != nil {
				return translateErr(err)
			}
			cfgRaw, err := encodeConfig(downstreamConfig)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE ports SET config = $1 WHERE id = $2`, cfgRaw, downstreamPort.ID); err != nil {
				return translateErr(err)
			}
			downstreamPort.Config = downstreamConfig
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func findPort(ps []graph.Port, direction graph.Direction, name string) (*graph.Port, error) {
	for i := range ps {
		if ps[i].Direction == direction && ps[i].Name == name {
			return &ps[i], nil
		}
	}
	return nil, fmt.Errorf("no %s port named %q", direction, name)
}
