package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DiscountScanner/internal/domain"
)

type fakeRunner struct {
	retailer string
	summary  domain.ReconciliationSummary
	err      error
}

func (r *fakeRunner) RunScrape(ctx context.Context, retailer string) (domain.ReconciliationSummary, error) {
	r.retailer = retailer
	return r.summary, r.err
}

type fakeReader struct {
	listings []domain.DiscountListing
	runs     []domain.ScraperRun
	retailer string
	limit    int
}

func (r *fakeReader) ActiveDiscounts(ctx context.Context, retailer string) ([]domain.DiscountListing, error) {
	r.retailer = retailer
	return r.listings, nil
}

func (r *fakeReader) RecentRuns(ctx context.Context, limit int) ([]domain.ScraperRun, error) {
	r.limit = limit
	return r.runs, nil
}

func newTestServer(runner *fakeRunner, reader *fakeReader) *Server {
	return NewServer(":0", runner, reader, slog.New(slog.DiscardHandler))
}

func TestHandleScrape(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{summary: domain.ReconciliationSummary{DiscountsCreated: 7}}
	srv := newTestServer(runner, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/scrape/dirk", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if runner.retailer != "dirk" {
		t.Fatalf("retailer = %q", runner.retailer)
	}

	var body struct {
		Retailer string                       `json:"retailer"`
		Summary  domain.ReconciliationSummary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Retailer != "dirk" || body.Summary.DiscountsCreated != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleScrapeSessionFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: fmt.Errorf("%w: chrome did not start", domain.ErrSession)}
	srv := newTestServer(runner, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/scrape/ah", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleDiscounts(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{listings: []domain.DiscountListing{{
		ProductName: "Apples", Category: "Fruit", Retailer: "dirk",
		OriginalPrice: 2.50, DiscountPrice: 1.99,
		ExpiresOn: time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC),
	}}}
	srv := newTestServer(&fakeRunner{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/discounts?retailer=dirk", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if reader.retailer != "dirk" {
		t.Fatalf("retailer filter not forwarded: %q", reader.retailer)
	}

	var listings []domain.DiscountListing
	if err := json.Unmarshal(rec.Body.Bytes(), &listings); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(listings) != 1 || listings[0].ProductName != "Apples" {
		t.Fatalf("unexpected listings: %+v", listings)
	}
}

func TestHandleDiscountsEmptyIsArray(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRunner{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/discounts", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("empty result should encode as [], got %q", got)
	}
}

func TestHandleRunsBadLimit(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRunner{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=abc", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRuns(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{runs: []domain.ScraperRun{{ID: 1, Retailer: "plus", Status: domain.RunSuccess}}}
	srv := newTestServer(&fakeRunner{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if reader.limit != 5 {
		t.Fatalf("limit not forwarded: %d", reader.limit)
	}
}
