package storage

import (
	"context"
	"fmt"
	"time"

	"DiscountScanner/internal/domain"
)

// Reconcile replaces a retailer's active discount set with the freshly
// scraped records using the soft model: products are upserted, prior
// active discounts for this retailer are deactivated, fresh rows are
// inserted, and the next run is scheduled. Deactivate-then-insert runs in
// one transaction so readers never observe a retailer with zero active
// discounts mid-reconcile.
//
// An empty record set is treated as suspicious rather than as "everything
// expired": nothing is deactivated, only the schedule is refreshed, and
// the caller records the run with a dedicated empty status.
func (s *Store) Reconcile(ctx context.Context, retailer string, expiresOn time.Time, records []domain.ProductDiscountRecord) (domain.ReconciliationSummary, error) {
	var summary domain.ReconciliationSummary

	records = dedupeByName(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("%w: begin: %v", domain.ErrReconciliation, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Serializes accidental double-triggers for one retailer without
	// blocking reconciles for other retailers.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, retailer); err != nil {
		return summary, fmt.Errorf("%w: advisory lock %s: %v", domain.ErrReconciliation, retailer, err)
	}

	if len(records) > 0 {
		productIDs := make([]int64, len(records))
		for i, rec := range records {
			query, args, err := s.sb.Insert("products").
				Columns("name", "category", "retailer").
				Values(rec.Name, rec.Category, retailer).
				Suffix(`ON CONFLICT (name, retailer) DO UPDATE
					SET category = EXCLUDED.category, updated_at = NOW()
					RETURNING id, (xmax = 0) AS inserted`).
				ToSql()
			if err != nil {
				return summary, fmt.Errorf("%w: build product upsert: %v", domain.ErrReconciliation, err)
			}

			var inserted bool
			if err := tx.QueryRowContext(ctx, query, args...).Scan(&productIDs[i], &inserted); err != nil {
				return summary, fmt.Errorf("%w: upsert product %q: %v", domain.ErrReconciliation, rec.Name, err)
			}
			if inserted {
				summary.ProductsCreated++
			} else {
				summary.ProductsUpdated++
			}
		}

		res, err := tx.ExecContext(ctx, `UPDATE discounts SET active = FALSE
			FROM products
			WHERE discounts.product_id = products.id
			  AND products.retailer = $1
			  AND discounts.active`, retailer)
		if err != nil {
			return summary, fmt.Errorf("%w: deactivate %s: %v", domain.ErrReconciliation, retailer, err)
		}
		deactivated, _ := res.RowsAffected()
		summary.DiscountsDeactivated = int(deactivated)

		insert := s.sb.Insert("discounts").
			Columns("product_id", "original_price", "discount_price", "promotion_tag", "expires_on", "active")
		for i, rec := range records {
			insert = insert.Values(productIDs[i], rec.OriginalPrice, rec.DiscountPrice, rec.PromotionTag, rec.ExpiresOn, true)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return summary, fmt.Errorf("%w: build discount insert: %v", domain.ErrReconciliation, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return summary, fmt.Errorf("%w: insert discounts %s: %v", domain.ErrReconciliation, retailer, err)
		}
		summary.DiscountsCreated = len(records)
	}

	next := domain.NextRun(expiresOn)
	query, args, err := s.sb.Insert("scheduled_runs").
		Columns("retailer", "next_run_at", "promotion_expires_on", "enabled").
		Values(retailer, next, expiresOn, true).
		Suffix(`ON CONFLICT (retailer) DO UPDATE
			SET next_run_at = EXCLUDED.next_run_at,
			    promotion_expires_on = EXCLUDED.promotion_expires_on`).
		ToSql()
	if err != nil {
		return summary, fmt.Errorf("%w: build schedule upsert: %v", domain.ErrReconciliation, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return summary, fmt.Errorf("%w: upsert schedule %s: %v", domain.ErrReconciliation, retailer, err)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("%w: commit %s: %v", domain.ErrReconciliation, retailer, err)
	}

	if s.logger != nil {
		s.logger.Info("reconciled retailer",
			"retailer", retailer,
			"products_created", summary.ProductsCreated,
			"products_updated", summary.ProductsUpdated,
			"discounts_created", summary.DiscountsCreated,
			"discounts_deactivated", summary.DiscountsDeactivated)
	}
	return summary, nil
}

// dedupeByName keeps the first record per product name so a single run can
// never insert two active discounts for one product.
func dedupeByName(records []domain.ProductDiscountRecord) []domain.ProductDiscountRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		if _, ok := seen[rec.Name]; ok {
			continue
		}
		seen[rec.Name] = struct{}{}
		out = append(out, rec)
	}
	return out
}
