// Package store persists the pipeline graph (projects, blocks, entrypoints,
// ports, edges) in PostgreSQL via pgx, implementing ports.GraphStore with
// transactional semantics: every multi-row write runs inside one
// pgx.Tx, and constraint violations are translated to the typed error
// taxonomy instead of leaking driver errors.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a pgx-backed ports.GraphStore.
type Store struct {
	pool     *pgxpool.Pool
	logger   ports.Logger
	defaults *defaultconfig.Provider
}

// New opens a connection pool against dsn. defaults is consulted only by
// InstantiateTemplate, which must compute edge propagation without a round
// trip back through the Configuration Engine (template-local port ids do
// not exist until this same call persists them).
func New(ctx context.Context, dsn string, defaults *defaultconfig.Provider, logger ports.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger, defaults: defaults}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies every pending migration using goose against dsn. It opens
// its own database/sql connection (goose's required driver shape) via the
// pgx stdlib adapter, registered under the "pgx" driver name, and closes it
// before returning.
func Migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// pgErrCode extracts the SQLSTATE code from err, if it is a *pgconn.PgError.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Postgres SQLSTATE codes classified by category: integrity
// violations are surfaced as CONFLICT (unique/foreign-key) or
// UNPROCESSABLE (not-null), never as raw driver errors.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateNotNullViolation    = "23502"
)

// translateErr maps a raw pgx/pgconn error to the typed taxonomy. Errors
// with no recognized SQLSTATE are returned unchanged.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch pgErrCode(err) {
	case sqlStateUniqueViolation:
		return cperrors.NewConflictError("unique constraint violated", err)
	case sqlStateForeignKeyViolation:
		return cperrors.NewConflictError("foreign key constraint violated", err)
	case sqlStateNotNullViolation:
		return cperrors.NewUnprocessableError("required field missing", err)
	default:
		return err
	}
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
