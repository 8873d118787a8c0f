package ports

import (
	"context"
	"time"

	"DiscountScanner/internal/domain"
)

// BrowserSession is one live headless-browser page. All calls suspend until
// the browser answers; Close must be invoked exactly once per session.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	// DismissOverlay clicks a cookie/consent element if it shows up within
	// the timeout. An empty selector is a no-op.
	DismissOverlay(ctx context.Context, selector string, timeout time.Duration) error
	Text(ctx context.Context, selector string) (string, error)
	// HTML snapshots the fully rendered document for in-memory traversal.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// SessionFactory launches fresh browser sessions, one per scrape run.
type SessionFactory interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// Reconciler replaces a retailer's active dataset with a freshly scraped
// one: product upserts, retailer-scoped discount deactivation, fresh
// inserts, and the next-run schedule update, all in one transaction.
type Reconciler interface {
	Reconcile(ctx context.Context, retailer string, expiresOn time.Time, records []domain.ProductDiscountRecord) (domain.ReconciliationSummary, error)
}

// RunJournal is the scraper_runs audit trail.
type RunJournal interface {
	StartRun(ctx context.Context, retailer string) (int64, error)
	FinishRun(ctx context.Context, id int64, status domain.RunStatus, scraped int, summary domain.ReconciliationSummary, errMessage string) error
}

// RunSchedule reports which retailers are due for a scrape.
type RunSchedule interface {
	DueRetailers(ctx context.Context, now time.Time) ([]string, error)
}

// DiscountReader serves the dashboard API.
type DiscountReader interface {
	ActiveDiscounts(ctx context.Context, retailer string) ([]domain.DiscountListing, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.ScraperRun, error)
}

// Notifier pushes run outcomes to Telegram or other channels.
type Notifier interface {
	PublishSummary(ctx context.Context, retailer string, status domain.RunStatus, summary domain.ReconciliationSummary) error
}

// ChatClient pushes structured deal digests to LLM APIs (e.g., ChatGPT).
type ChatClient interface {
	SendDigest(ctx context.Context, payload []byte) error
}

// Scheduler controls when scrape pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
