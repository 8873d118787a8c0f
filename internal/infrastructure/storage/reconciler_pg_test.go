package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"DiscountScanner/internal/domain"
)

// These tests need a real Postgres; gate behind TEST_DATABASE_DSN. They
// share one database and wipe it on setup, so none of them run parallel.

var testExpiry = time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("set TEST_DATABASE_DSN to run storage integration tests")
	}

	store, err := Open(dsn, nil)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	for _, table := range []string{"discounts", "scraper_runs", "scheduled_runs", "products"} {
		if _, err := store.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clear %s: %v", table, err)
		}
	}
	return store, ctx
}

func recordsFor(retailer string, names ...string) []domain.ProductDiscountRecord {
	records := make([]domain.ProductDiscountRecord, 0, len(names))
	for _, name := range names {
		records = append(records, domain.ProductDiscountRecord{
			Name:          name,
			Category:      "Fruit",
			Retailer:      retailer,
			OriginalPrice: 2.50,
			DiscountPrice: 1.99,
			PromotionTag:  "1+1 free",
			ExpiresOn:     testExpiry,
		})
	}
	return records
}

func productCount(t *testing.T, store *Store, ctx context.Context, retailer string) int {
	t.Helper()
	var count int
	err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE retailer = $1`, retailer).Scan(&count)
	if err != nil {
		t.Fatalf("count products: %v", err)
	}
	return count
}

func TestReconcileIdempotence(t *testing.T) {
	store, ctx := openTestStore(t)
	records := recordsFor("dirk", "Apples", "Pears", "Milk")

	first, err := store.Reconcile(ctx, "dirk", testExpiry, records)
	if err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if first.ProductsCreated != 3 || first.DiscountsCreated != 3 || first.DiscountsDeactivated != 0 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	second, err := store.Reconcile(ctx, "dirk", testExpiry, records)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if second.ProductsCreated != 0 || second.ProductsUpdated != 3 {
		t.Fatalf("re-run should only update products: %+v", second)
	}
	if second.DiscountsDeactivated != 3 || second.DiscountsCreated != 3 {
		t.Fatalf("re-run should replace the active set: %+v", second)
	}

	listings, err := store.ActiveDiscounts(ctx, "dirk")
	if err != nil {
		t.Fatalf("active discounts: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 active discounts, got %d", len(listings))
	}
	seen := map[string]bool{}
	for _, l := range listings {
		if seen[l.ProductName] {
			t.Fatalf("product %s has more than one active discount", l.ProductName)
		}
		seen[l.ProductName] = true
	}

	if got := productCount(t, store, ctx, "dirk"); got != 3 {
		t.Fatalf("products duplicated across reconciles: %d", got)
	}
}

func TestReconcileShrinkingResultSet(t *testing.T) {
	store, ctx := openTestStore(t)

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("product-%d", i)
	}

	if _, err := store.Reconcile(ctx, "dirk", testExpiry, recordsFor("dirk", names...)); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	summary, err := store.Reconcile(ctx, "dirk", testExpiry, recordsFor("dirk", names[:7]...))
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if summary.DiscountsDeactivated != 10 || summary.DiscountsCreated != 7 {
		t.Fatalf("unexpected shrink summary: %+v", summary)
	}

	listings, err := store.ActiveDiscounts(ctx, "dirk")
	if err != nil {
		t.Fatalf("active discounts: %v", err)
	}
	if len(listings) != 7 {
		t.Fatalf("expected 7 active discounts, got %d", len(listings))
	}
	active := map[string]bool{}
	for _, l := range listings {
		active[l.ProductName] = true
	}
	for _, name := range names[7:] {
		if active[name] {
			t.Fatalf("dropped product %s still has an active discount", name)
		}
	}

	if got := productCount(t, store, ctx, "dirk"); got != 10 {
		t.Fatalf("products must survive a shrink, got %d", got)
	}
}

func TestReconcileScopedToRetailer(t *testing.T) {
	store, ctx := openTestStore(t)

	if _, err := store.Reconcile(ctx, "ah", testExpiry, recordsFor("ah", "Apples", "Milk")); err != nil {
		t.Fatalf("reconcile ah: %v", err)
	}
	if _, err := store.Reconcile(ctx, "plus", testExpiry, recordsFor("plus", "Apples", "Butter")); err != nil {
		t.Fatalf("reconcile plus: %v", err)
	}

	summary, err := store.Reconcile(ctx, "ah", testExpiry, recordsFor("ah", "Apples"))
	if err != nil {
		t.Fatalf("second reconcile ah: %v", err)
	}
	if summary.DiscountsDeactivated != 2 {
		t.Fatalf("expected only ah discounts deactivated, got %+v", summary)
	}

	plusListings, err := store.ActiveDiscounts(ctx, "plus")
	if err != nil {
		t.Fatalf("active discounts plus: %v", err)
	}
	if len(plusListings) != 2 {
		t.Fatalf("reconciling ah touched plus: %d active left", len(plusListings))
	}
}

func TestReconcileEmptyKeepsActiveSet(t *testing.T) {
	store, ctx := openTestStore(t)

	if _, err := store.Reconcile(ctx, "dirk", testExpiry, recordsFor("dirk", "Apples", "Pears")); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}

	summary, err := store.Reconcile(ctx, "dirk", testExpiry, nil)
	if err != nil {
		t.Fatalf("empty reconcile: %v", err)
	}
	if summary != (domain.ReconciliationSummary{}) {
		t.Fatalf("empty reconcile must not change anything: %+v", summary)
	}

	listings, err := store.ActiveDiscounts(ctx, "dirk")
	if err != nil {
		t.Fatalf("active discounts: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("empty scrape wiped the active set: %d left", len(listings))
	}

	// The schedule row is still refreshed so the retailer is retried.
	due, err := store.DueRetailers(ctx, domain.NextRun(testExpiry))
	if err != nil {
		t.Fatalf("due retailers: %v", err)
	}
	found := false
	for _, retailer := range due {
		if retailer == "dirk" {
			found = true
		}
	}
	if !found {
		t.Fatalf("retailer not rescheduled after empty scrape: %v", due)
	}
}
