package checkers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSchemaMissing = errors.New("schema not migrated")

// PostgresChecker pings the pool and confirms the migrated tables exist.
type PostgresChecker struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	tables  []string
}

func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{
		pool:    pool,
		timeout: time.Second,
		tables:  []string{"users", "audit_events"},
	}
}

func (c *PostgresChecker) Name() string { return "postgres" }

func (c *PostgresChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	var missing []string
	err := c.pool.QueryRow(ctx, `
		SELECT coalesce(array_agg(t), '{}')
		FROM unnest($1::text[]) AS t
		WHERE to_regclass(t) IS NULL
	`, c.tables).Scan(&missing)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrSchemaMissing, missing)
	}
	return nil
}
