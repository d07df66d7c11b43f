package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// ProjectEdges fetches edges touching any of blockIDs.
func (s *Store) ProjectEdges(ctx context.Context, projectID string, blockIDs []string) ([]graph.Edge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT upstream_block_id, upstream_port_id, downstream_block_id, downstream_port_id
		FROM edges
		WHERE upstream_block_id = ANY($1) OR downstream_block_id = ANY($1)`, blockIDs)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.UpstreamBlockID, &e.UpstreamPortID, &e.DownstreamBlockID, &e.DownstreamPortID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CreateEdge inserts the edge row and overwrites the downstream port's
// config with downstreamConfig in the same transaction ("Graph
// Store" atomicity requirement).
func (s *Store) CreateEdge(ctx context.Context, edge graph.Edge, downstreamConfig graph.Config) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO edges (upstream_block_id, upstream_port_id, downstream_block_id, downstream_port_id)
			VALUES ($1, $2, $3, $4)`,
			edge.UpstreamBlockID, edge.UpstreamPortID, edge.DownstreamBlockID, edge.DownstreamPortID); err != nil {
			return translateErr(err)
		}

		cfgRaw, err := encodeConfig(downstreamConfig)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE ports SET config = $1 WHERE id = $2`, cfgRaw, edge.DownstreamPortID); err != nil {
			return translateErr(err)
		}
		return nil
	})
}

// DeleteEdge removes the edge row only; it never un-propagates
// configuration.
func (s *Store) DeleteEdge(ctx context.Context, edge graph.Edge) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM edges
		WHERE upstream_port_id = $1 AND downstream_port_id = $2`,
		edge.UpstreamPortID, edge.DownstreamPortID)
	return translateErr(err)
}
