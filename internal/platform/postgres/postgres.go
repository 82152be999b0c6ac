// Package postgres owns the connection pool and schema migrations for the
// PostgreSQL-backed stores.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// Migrate applies pending migrations from dir against databaseURL.
// A no-change run is not an error.
func Migrate(databaseURL, dir string) error {
	// migrate selects its database driver by URL scheme; the pgx/v5 driver
	// registers as pgx5.
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		databaseURL = "pgx5://" + rest
	} else if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		databaseURL = "pgx5://" + rest
	}

	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
