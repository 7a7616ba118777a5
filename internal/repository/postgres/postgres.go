// Package postgres implements the repository interfaces on PostgreSQL using a
// pgx connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/hackernews/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var migrateMu sync.Mutex

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var _ repository.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and migrates the
// schema to the latest version.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases every connection in the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// migrate runs goose through a database/sql handle that borrows connections
// from the pgx pool. Closing that handle does not close the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, "migrations")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
