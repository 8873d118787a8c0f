package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// DueRetailers lists enabled retailers whose next_run_at has passed.
func (s *Store) DueRetailers(ctx context.Context, now time.Time) ([]string, error) {
	query, args, err := s.sb.Select("retailer").
		From("scheduled_runs").
		Where(sq.LtOrEq{"next_run_at": now}).
		Where(sq.Eq{"enabled": true}).
		OrderBy("next_run_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build due query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due retailers: %w", err)
	}
	defer rows.Close()

	var due []string
	for rows.Next() {
		var retailer string
		if err := rows.Scan(&retailer); err != nil {
			return nil, fmt.Errorf("scan retailer: %w", err)
		}
		due = append(due, retailer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return due, nil
}
