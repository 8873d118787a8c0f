package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"DiscountScanner/internal/ports"
)

// ScrapeScheduler polls the run schedule on every tick and launches one
// goroutine per due retailer. An in-flight guard keeps slow runs from
// being triggered twice when the next tick arrives first.
type ScrapeScheduler struct {
	driver   ports.Scheduler
	schedule ports.RunSchedule
	pipeline *Pipeline
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewScrapeScheduler binds the tick driver to the schedule table.
func NewScrapeScheduler(driver ports.Scheduler, schedule ports.RunSchedule, pipeline *Pipeline, logger *slog.Logger) *ScrapeScheduler {
	return &ScrapeScheduler{
		driver:   driver,
		schedule: schedule,
		pipeline: pipeline,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Start begins polling. Runs until the driver is stopped or ctx ends.
func (s *ScrapeScheduler) Start(ctx context.Context) error {
	return s.driver.Start(ctx, func(trigger time.Time) {
		s.runDue(ctx, trigger)
	})
}

// Stop halts the tick driver and waits for in-flight scrapes to finish.
func (s *ScrapeScheduler) Stop(ctx context.Context) error {
	err := s.driver.Stop(ctx)
	s.wg.Wait()
	return err
}

func (s *ScrapeScheduler) runDue(ctx context.Context, now time.Time) {
	due, err := s.schedule.DueRetailers(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("cannot list due retailers", "error", err)
		}
		return
	}

	for _, retailer := range due {
		if !s.claim(retailer) {
			continue
		}
		s.wg.Add(1)
		go func(retailer string) {
			defer s.wg.Done()
			defer s.release(retailer)
			if _, err := s.pipeline.RunScrape(ctx, retailer); err != nil {
				if s.logger != nil {
					s.logger.Error("scheduled scrape failed", "retailer", retailer, "error", err)
				}
			}
		}(retailer)
	}
}

func (s *ScrapeScheduler) claim(retailer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[retailer]; busy {
		return false
	}
	s.inflight[retailer] = struct{}{}
	return true
}

func (s *ScrapeScheduler) release(retailer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, retailer)
}
