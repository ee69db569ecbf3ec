// Package postgres implements the two-tier relational storage layer: the
// short-term (retention-bounded) and long-term (append-only) schemas, the
// conflict-tolerant batch loader, and the migrate/prune cycle.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx pool with knowledge of the two schema names. One Store
// is shared for the duration of a run; the pool is the single database
// resource, acquired at run start and released at run end.
type Store struct {
	pool        *pgxpool.Pool
	shortSchema string
	longSchema  string
	logger      *slog.Logger
}

// New connects to the database and returns a Store over the given schemas.
func New(ctx context.Context, databaseURL, shortSchema, longSchema string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{
		pool:        pool,
		shortSchema: shortSchema,
		longSchema:  longSchema,
		logger:      logger,
	}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchemas creates both schemas and their identical table shapes if they
// do not exist. Natural-key uniqueness is enforced here at the constraint
// level; the conflict-tolerant inserts in the loader rely on it.
func (s *Store) EnsureSchemas(ctx context.Context) error {
	for _, schema := range []string{s.shortSchema, s.longSchema} {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
		if _, err := s.pool.Exec(ctx, schemaDDL(schema)); err != nil {
			return fmt.Errorf("create tables in %s: %w", schema, err)
		}
	}
	return nil
}
