package domain

import "errors"

// Fatal error classes for a scrape run. Wrapped with %w so the pipeline
// boundary can classify failures with errors.Is; non-fatal conditions are
// logged and recovered locally instead.
var (
	// ErrSession covers browser launch and navigation failures.
	ErrSession = errors.New("browser session")

	// ErrExpiryParse means the promotion period text matched no known
	// pattern, so no next run can be scheduled.
	ErrExpiryParse = errors.New("expiry parse")

	// ErrReconciliation covers persistence failures mid-reconcile.
	ErrReconciliation = errors.New("reconciliation")
)
