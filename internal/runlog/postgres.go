package runlog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cascadialive/showcrawler/internal/syncer"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool for run history.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresProvider writes run rows into Postgres.
//
// Expected schema:
//
//	CREATE TABLE pipeline_runs (
//		id UUID PRIMARY KEY,
//		site TEXT NOT NULL,
//		status TEXT NOT NULL,
//		error_text TEXT NOT NULL DEFAULT '',
//		added INT NOT NULL DEFAULT 0,
//		updated INT NOT NULL DEFAULT 0,
//		skipped INT NOT NULL DEFAULT 0,
//		total INT NOT NULL DEFAULT 0,
//		started_at TIMESTAMPTZ NOT NULL,
//		finished_at TIMESTAMPTZ
//	);
type PostgresProvider struct {
	pool  execCloser
	table string
}

// NewPostgresProvider creates a pool-backed provider from config.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("runlog.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newPostgresProvider(pool, cfg.Table)
}

// NewPostgresProviderWithPool constructs a provider from an existing pool
// (primarily for testing).
func NewPostgresProviderWithPool(pool execCloser, table string) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newPostgresProvider(pool, table)
}

func newPostgresProvider(pool execCloser, table string) (*PostgresProvider, error) {
	if table == "" {
		table = "pipeline_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresProvider{pool: pool, table: table}, nil
}

// StartRun inserts the run row.
func (p *PostgresProvider) StartRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, site, status, started_at) VALUES ($1, $2, $3, $4)`,
		p.table,
	)
	if _, err := p.pool.Exec(ctx, query, run.ID, run.Site, run.Status, run.Started); err != nil {
		return fmt.Errorf("insert run row: %w", err)
	}
	return nil
}

// FinishRun updates the run row with its terminal state and counters.
func (p *PostgresProvider) FinishRun(
	ctx context.Context,
	runID, status, errText string,
	stats syncer.Stats,
	finished time.Time,
) error {
	query := fmt.Sprintf(`
UPDATE %s
SET status = $2,
	error_text = $3,
	added = $4,
	updated = $5,
	skipped = $6,
	total = $7,
	finished_at = $8
WHERE id = $1`, p.table)
	tag, err := p.pool.Exec(ctx, query,
		runID, status, errText,
		stats.Added, stats.Updated, stats.Skipped, stats.Total,
		finished,
	)
	if err != nil {
		return fmt.Errorf("update run row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresProvider) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}
