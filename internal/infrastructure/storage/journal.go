package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"DiscountScanner/internal/domain"
)

// StartRun opens an audit row with status running and returns its id.
func (s *Store) StartRun(ctx context.Context, retailer string) (int64, error) {
	query, args, err := s.sb.Insert("scraper_runs").
		Columns("retailer", "status").
		Values(retailer, domain.RunRunning).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build run insert: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("start run %s: %w", retailer, err)
	}
	return id, nil
}

// FinishRun finalizes an audit row. The status guard makes finalization a
// one-shot transition: a row that already left running is never rewritten.
func (s *Store) FinishRun(ctx context.Context, id int64, status domain.RunStatus, scraped int, summary domain.ReconciliationSummary, errMessage string) error {
	query, args, err := s.sb.Update("scraper_runs").
		Set("status", status).
		Set("products_scraped", scraped).
		Set("products_created", summary.ProductsCreated).
		Set("products_updated", summary.ProductsUpdated).
		Set("discounts_created", summary.DiscountsCreated).
		Set("discounts_deactivated", summary.DiscountsDeactivated).
		Set("error_message", sq.Expr("NULLIF(?, '')", errMessage)).
		Set("completed_at", sq.Expr("NOW()")).
		Set("duration_seconds", sq.Expr("EXTRACT(EPOCH FROM (NOW() - started_at))")).
		Where(sq.Eq{"id": id, "status": domain.RunRunning}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	return nil
}
