// Package postgres provides Postgres-backed persistence for bill text.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// BillStoreConfig controls the Postgres connection pool used for bill rows.
type BillStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// BillStore upserts bill text rows into Postgres. Rows are keyed by
// (congress, bill_type, bill_number) so re-running a job refreshes text
// instead of duplicating bills.
type BillStore struct {
	pool  execCloser
	table string
}

// NewBillStore creates a Postgres-backed BillStore using the provided config.
func NewBillStore(ctx context.Context, cfg BillStoreConfig) (*BillStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "bills"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &BillStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewBillStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewBillStoreWithPool(pool execCloser, table string) (*BillStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "bills"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &BillStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *BillStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertBillText writes one bill's text row. A bill with no retrievable
// text is still recorded, with has_full_text false, so later runs can
// tell "never tried" from "tried and found nothing".
func (s *BillStore) UpsertBillText(ctx context.Context, record bills.TextRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("bill store is not configured")
	}
	if record.Bill.IsZero() {
		return fmt.Errorf("bill id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	congress,
	bill_type,
	bill_number,
	full_text,
	has_full_text,
	text_source,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,NOW()
)
ON CONFLICT (congress, bill_type, bill_number) DO UPDATE SET
	full_text = EXCLUDED.full_text,
	has_full_text = EXCLUDED.has_full_text,
	text_source = EXCLUDED.text_source,
	updated_at = NOW()`, s.table)

	// text_source is NULL, not empty, when no text was found. Reporting
	// queries filter on text_source IS NULL.
	var source *string
	if record.TextSource != bills.SourceNone {
		v := string(record.TextSource)
		source = &v
	}
	args := []any{
		record.Bill.Congress,
		record.Bill.Type,
		record.Bill.Number,
		record.FullText,
		record.HasFullText,
		source,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert bill %s: %w", record.Bill, err)
	}
	return nil
}
