package domain

import "time"

// ProductDiscountRecord is the in-memory result of extracting one product
// anchor during a scrape run. It is never mutated after creation.
type ProductDiscountRecord struct {
	Name          string
	OriginalPrice float64
	DiscountPrice float64
	PromotionTag  string
	Category      string
	Retailer      string
	ExpiresOn     time.Time
}

// Product is the persisted catalog entity, unique per (name, retailer).
type Product struct {
	ID        int64
	Name      string
	Category  string
	Retailer  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Discount is one persisted promotion row. Retired rows keep active=false
// instead of being deleted so history survives reconciliation.
type Discount struct {
	ID            int64
	ProductID     int64
	OriginalPrice float64
	DiscountPrice float64
	PromotionTag  string
	ExpiresOn     time.Time
	Active        bool
	CreatedAt     time.Time
}

// DiscountListing is the joined product+discount view served by the API.
type DiscountListing struct {
	ProductName   string    `json:"productName"`
	Category      string    `json:"category"`
	Retailer      string    `json:"retailer"`
	OriginalPrice float64   `json:"originalPrice"`
	DiscountPrice float64   `json:"discountPrice"`
	PromotionTag  string    `json:"promotionTag"`
	ExpiresOn     time.Time `json:"expiresOn"`
}

// ScheduledRun stores when a retailer should be scraped next.
type ScheduledRun struct {
	Retailer           string
	NextRunAt          time.Time
	PromotionExpiresOn time.Time
	Enabled            bool
}

// RunStatus enumerates scraper run outcomes.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	// RunEmpty marks a run that completed without finding any products.
	// Indistinguishable from a silent site-structure change, so it is
	// surfaced separately and nothing is deactivated.
	RunEmpty RunStatus = "empty"
)

// ScraperRun is one audit row per scrape attempt, finalized exactly once.
type ScraperRun struct {
	ID                   int64      `json:"id"`
	Retailer             string     `json:"retailer"`
	Status               RunStatus  `json:"status"`
	ProductsScraped      int        `json:"productsScraped"`
	ProductsCreated      int        `json:"productsCreated"`
	ProductsUpdated      int        `json:"productsUpdated"`
	DiscountsCreated     int        `json:"discountsCreated"`
	DiscountsDeactivated int        `json:"discountsDeactivated"`
	ErrorMessage         string     `json:"errorMessage,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	DurationSeconds      float64    `json:"durationSeconds,omitempty"`
}

// ReconciliationSummary reports what a reconcile pass changed.
type ReconciliationSummary struct {
	ProductsCreated      int `json:"productsCreated"`
	ProductsUpdated      int `json:"productsUpdated"`
	DiscountsCreated     int `json:"discountsCreated"`
	DiscountsDeactivated int `json:"discountsDeactivated"`
}

// NextRun derives the next scrape moment from a promotion expiry date:
// one day later, truncated to midnight. New promotions publish the day
// after the old period ends.
func NextRun(expiresOn time.Time) time.Time {
	next := expiresOn.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
}
