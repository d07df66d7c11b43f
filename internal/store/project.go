package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scystream/control-plane/internal/domain/graph"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// CreateProject persists a new project owned by creatorUserID, who becomes
// its first member.
func (s *Store) CreateProject(ctx context.Context, name string, creatorUserID string) (*graph.Project, error) {
	var p graph.Project
	err := withTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO projects (name) VALUES ($1) RETURNING id, name, created_at`, name)
		if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return translateErr(err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`, p.ID, creatorUserID); err != nil {
			return translateErr(err)
		}
		p.Members = map[string]struct{}{creatorUserID: {}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects fetches every project without its member set (the status
// stream only needs ids), ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]graph.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []graph.Project
	for rows.Next() {
		var p graph.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProject fetches a project by id with its member set.
func (s *Store) GetProject(ctx context.Context, id string) (*graph.Project, error) {
	var p graph.Project
	row := s.pool.QueryRow(ctx, `SELECT id, name, created_at FROM projects WHERE id = $1`, id)
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, cperrors.NewNotFoundError("project", id)
		}
		return nil, translateErr(err)
	}

	rows, err := s.pool.Query(ctx, `SELECT user_id FROM project_members WHERE project_id = $1`, id)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	p.Members = make(map[string]struct{})
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		p.Members[userID] = struct{}{}
	}
	return &p, rows.Err()
}
