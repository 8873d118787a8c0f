package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"DiscountScanner/internal/domain"
)

// ActiveDiscounts returns the current discount set, optionally scoped to
// one retailer, joined with the owning products.
func (s *Store) ActiveDiscounts(ctx context.Context, retailer string) ([]domain.DiscountListing, error) {
	qb := s.sb.Select(
		"p.name", "p.category", "p.retailer",
		"d.original_price", "d.discount_price", "d.promotion_tag", "d.expires_on").
		From("discounts d").
		Join("products p ON p.id = d.product_id").
		Where(sq.Eq{"d.active": true}).
		OrderBy("p.retailer", "p.category", "p.name")
	if retailer != "" {
		qb = qb.Where(sq.Eq{"p.retailer": retailer})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build discounts query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active discounts: %w", err)
	}
	defer rows.Close()

	var listings []domain.DiscountListing
	for rows.Next() {
		var l domain.DiscountListing
		if err := rows.Scan(&l.ProductName, &l.Category, &l.Retailer,
			&l.OriginalPrice, &l.DiscountPrice, &l.PromotionTag, &l.ExpiresOn); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return listings, nil
}

// RecentRuns returns the newest audit rows for the dashboard.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.ScraperRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := s.sb.Select(
		"id", "retailer", "status",
		"products_scraped", "products_created", "products_updated",
		"discounts_created", "discounts_deactivated",
		"error_message", "started_at", "completed_at", "duration_seconds").
		From("scraper_runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ScraperRun
	for rows.Next() {
		var (
			run         domain.ScraperRun
			errMessage  sql.NullString
			completedAt sql.NullTime
			duration    sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.Retailer, &run.Status,
			&run.ProductsScraped, &run.ProductsCreated, &run.ProductsUpdated,
			&run.DiscountsCreated, &run.DiscountsDeactivated,
			&errMessage, &run.StartedAt, &completedAt, &duration); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.ErrorMessage = errMessage.String
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		run.DurationSeconds = duration.Float64
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, nil
}
