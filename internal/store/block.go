package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// ProjectBlocks fetches every block of projectID eagerly joined with its
// selected entrypoint and ports, ordered by port data_type (FILE < PGTABLE
// < CUSTOM) then port name.
func (s *Store) ProjectBlocks(ctx context.Context, projectID string) ([]ports.BlockView, error) {
	blockRows, err := s.pool.Query(ctx, `
		SELECT b.id, b.project_id, b.manifest_name, b.display_name, b.description,
		       b.author, b.image, b.manifest_url, b.x, b.y, b.entrypoint_id,
		       e.id, e.name, e.description, e.envs
		FROM blocks b
		JOIN entrypoints e ON e.id = b.entrypoint_id
		WHERE b.project_id = $1
		ORDER BY b.display_name`, projectID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer blockRows.Close()

	var views []ports.BlockView
	blockIDs := make([]string, 0)
	byID := make(map[string]*ports.BlockView)
	for blockRows.Next() {
		var v ports.BlockView
		var envsRaw []byte
		if err := blockRows.Scan(&v.Block.ID, &v.Block.ProjectID, &v.Block.ManifestName,
			&v.Block.DisplayName, &v.Block.Description, &v.Block.Author, &v.Block.Image,
			&v.Block.ManifestURL, &v.Block.X, &v.Block.Y, &v.Block.SelectedEntrypoint,
			&v.Entrypoint.ID, &v.Entrypoint.Name, &v.Entrypoint.Description, &envsRaw); err != nil {
			return nil, err
		}
		v.Entrypoint.BlockID = v.Block.ID
		envs, err := decodeConfig(envsRaw)
		if err != nil {
			return nil, err
		}
		v.Entrypoint.Envs = envs

		views = append(views, v)
		blockIDs = append(blockIDs, v.Block.ID)
	}
	if err := blockRows.Err(); err != nil {
		return nil, err
	}
	for i := range views {
		byID[views[i].Block.ID] = &views[i]
	}

	if len(blockIDs) == 0 {
		return nil, nil
	}

	portRows, err := s.pool.Query(ctx, `
		SELECT p.id, p.entrypoint_id, p.direction, p.name, p.data_type, p.description, p.config,
		       e.block_id
		FROM ports p
		JOIN entrypoints e ON e.id = p.entrypoint_id
		WHERE e.block_id = ANY($1)
		ORDER BY e.block_id,
		         CASE p.data_type WHEN 'FILE' THEN 0 WHEN 'PGTABLE' THEN 1 ELSE 2 END,
		         p.name`, blockIDs)
	if err != nil {
		return nil, translateErr(err)
	}
	defer portRows.Close()

	for portRows.Next() {
		var p graph.Port
		var cfgRaw []byte
		var blockID string
		if err := portRows.Scan(&p.ID, &p.EntrypointID, &p.Direction, &p.Name, &p.DataType,
			&p.Description, &cfgRaw, &blockID); err != nil {
			return nil, err
		}
		cfg, err := decodeConfig(cfgRaw)
		if err != nil {
			return nil, err
		}
		p.Config = cfg
		if v, ok := byID[blockID]; ok {
			v.Ports = append(v.Ports, p)
		}
	}
	return views, portRows.Err()
}

// CreateBlock persists a block with its entrypoint and ports in one
// transaction.
func (s *Store) CreateBlock(ctx context.Context, input ports.CreateBlockInput) (*ports.BlockView, error) {
	var view ports.BlockView
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		return createBlockTx(ctx, tx, input, &view)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// createBlockTx inserts one block + entrypoint + ports inside tx, sharing
// the transaction-creation logic with template instantiation.
func createBlockTx(ctx context.Context, tx pgx.Tx, input ports.CreateBlockInput, view *ports.BlockView) error {
	block := graph.Block{
		ProjectID:    input.ProjectID,
		ManifestName: input.ManifestName,
		DisplayName:  input.DisplayName,
		Description:  input.Description,
		Author:       input.Author,
		Image:        input.Image,
		ManifestURL:  input.ManifestURL,
		X:            input.X,
		Y:            input.Y,
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO blocks (project_id, manifest_name, display_name, description, author, image, manifest_url, x, y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`, block.ProjectID, block.ManifestName, block.DisplayName, block.Description,
		block.Author, block.Image, block.ManifestURL, block.X, block.Y)
	if err := row.Scan(&block.ID); err != nil {
		return translateErr(err)
	}

	envsRaw, err := encodeConfig(input.Envs)
	if err != nil {
		return err
	}
	entrypoint := graph.Entrypoint{
		BlockID:     block.ID,
		Name:        input.EntrypointName,
		Description: input.EntrypointDesc,
		Envs:        input.Envs,
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO entrypoints (block_id, name, description, envs)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, entrypoint.BlockID, entrypoint.Name, entrypoint.Description, envsRaw)
	if err := row.Scan(&entrypoint.ID); err != nil {
		return translateErr(err)
	}

	if _, err := tx.Exec(ctx, `UPDATE blocks SET entrypoint_id = $1 WHERE id = $2`, entrypoint.ID, block.ID); err != nil {
		return translateErr(err)
	}
	block.SelectedEntrypoint = entrypoint.ID

	allPorts := make([]ports.PortInput, 0, len(input.Inputs)+len(input.Outputs))
	directions := make([]graph.Direction, 0, len(input.Inputs)+len(input.Outputs))
	for _, in := range input.Inputs {
		allPorts = append(allPorts, in)
		directions = append(directions, graph.DirectionInput)
	}
	for _, out := range input.Outputs {
		allPorts = append(allPorts, out)
		directions = append(directions, graph.DirectionOutput)
	}

	portEntities := make([]graph.Port, 0, len(allPorts))
	for i, pi := range allPorts {
		cfgRaw, err := encodeConfig(pi.Config)
		if err != nil {
			return err
		}
		var portID string
		row := tx.QueryRow(ctx, `
			INSERT INTO ports (entrypoint_id, direction, name, data_type, description, config)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`, entrypoint.ID, directions[i], pi.Name, pi.DataType, pi.Description, cfgRaw)
		if err := row.Scan(&portID); err != nil {
			return translateErr(err)
		}
		portEntities = append(portEntities, graph.Port{
			ID: portID, EntrypointID: entrypoint.ID, Direction: directions[i],
			Name: pi.Name, DataType: pi.DataType, Description: pi.Description, Config: pi.Config,
		})
	}

	view.Block = block
	view.Entrypoint = entrypoint
	view.Ports = portEntities
	return nil
}

// DeleteBlock cascades to the block's entrypoint, ports, and every incident
// edge via foreign-key ON DELETE CASCADE.
func (s *Store) DeleteBlock(ctx context.Context, blockID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blocks WHERE id = $1`, blockID)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return cperrors.NewNotFoundError("block", blockID)
	}
	return nil
}

// Ports fetches ports by id.
func (s *Store) Ports(ctx context.Context, portIDs []string) ([]graph.Port, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entrypoint_id, direction, name, data_type, description, config
		FROM ports WHERE id = ANY($1)`, portIDs)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var result []graph.Port
	for rows.Next() {
		var p graph.Port
		var cfgRaw []byte
		if err := rows.Scan(&p.ID, &p.EntrypointID, &p.Direction, &p.Name, &p.DataType, &p.Description, &cfgRaw); err != nil {
			return nil, err
		}
		cfg, err := decodeConfig(cfgRaw)
		if err != nil {
			return nil, err
		}
		p.Config = cfg
		result = append(result, p)
	}
	return result, rows.Err()
}

// EntrypointEnvs fetches an entrypoint's envs config.
func (s *Store) EntrypointEnvs(ctx context.Context, entrypointID string) (graph.Config, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT envs FROM entrypoints WHERE id = $1`, entrypointID)
	if err := row.Scan(&raw); err != nil {
		if err == pgx.ErrNoRows {
			return nil, cperrors.NewNotFoundError("entrypoint", entrypointID)
		}
		return nil, translateErr(err)
	}
	return decodeConfig(raw)
}
