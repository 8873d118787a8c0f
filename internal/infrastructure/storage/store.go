package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"DiscountScanner/internal/ports"
)

// Store persists products, discounts, schedules, and run audit rows in
// Postgres. It is the only cross-run shared resource; the composition root
// owns its lifecycle.
type Store struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *slog.Logger
}

var _ ports.Reconciler = (*Store)(nil)
var _ ports.RunJournal = (*Store)(nil)
var _ ports.RunSchedule = (*Store)(nil)
var _ ports.DiscountReader = (*Store)(nil)

// Open connects to Postgres and verifies the connection.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, logger), nil
}

// New wires an existing sql.DB pool.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates all tables if they do not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			retailer TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (name, retailer)
		)`,
		`CREATE TABLE IF NOT EXISTS discounts (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products (id),
			original_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			discount_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			promotion_tag TEXT NOT NULL DEFAULT '',
			expires_on DATE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_discounts_active
			ON discounts (product_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS scheduled_runs (
			retailer TEXT PRIMARY KEY,
			next_run_at TIMESTAMPTZ NOT NULL,
			promotion_expires_on DATE NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS scraper_runs (
			id BIGSERIAL PRIMARY KEY,
			retailer TEXT NOT NULL,
			status TEXT NOT NULL,
			products_scraped INT NOT NULL DEFAULT 0,
			products_created INT NOT NULL DEFAULT 0,
			products_updated INT NOT NULL DEFAULT 0,
			discounts_created INT NOT NULL DEFAULT 0,
			discounts_deactivated INT NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			duration_seconds DOUBLE PRECISION
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
