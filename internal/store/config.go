package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// UpdatePortConfig replaces the port's config with newConfig and, if
// cascadeTargets is non-nil, replaces every downstream port's config in the
// same transaction. Merging with the existing config is the caller's job.
func (s *Store) UpdatePortConfig(ctx context.Context, portID string, newConfig graph.Config, cascadeTargets map[string]graph.Config) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		cfgRaw, err := encodeConfig(newConfig)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE ports SET config = $1 WHERE id = $2`, cfgRaw, portID); err != nil {
			return translateErr(err)
		}
		for targetID, cfg := range cascadeTargets {
			raw, err := encodeConfig(cfg)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE ports SET config = $1 WHERE id = $2`, raw, targetID); err != nil {
				return translateErr(err)
			}
		}
		return nil
	})
}

// UpdateEntrypointEnvs replaces the entrypoint's envs with newEnvs; no
// cascade. Merging with the existing envs is the caller's job.
func (s *Store) UpdateEntrypointEnvs(ctx context.Context, entrypointID string, newEnvs graph.Config) error {
	raw, err := encodeConfig(newEnvs)
	if err != nil {
		return err
	}
	_, execErr := s.pool.Exec(ctx, `UPDATE entrypoints SET envs = $1 WHERE id = $2`, raw, entrypointID)
	return translateErr(execErr)
}
