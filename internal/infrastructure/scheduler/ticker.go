package scheduler

import (
	"context"
	"time"

	"DiscountScanner/internal/ports"
)

// TickScheduler drives the polling loop with a plain time.Ticker. The due
// check is cheap, so a short fixed interval beats computing exact wake-ups
// from the schedule table.
type TickScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*TickScheduler)(nil)

// NewTickScheduler builds a scheduler firing at the given interval.
func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &TickScheduler{interval: interval}
}

// Start launches the tick goroutine. The job runs once immediately so a
// restart never delays an already-due scrape by a full interval.
func (t *TickScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case tick := <-ticker.C:
				job(tick)
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (t *TickScheduler) Stop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	return nil
}
