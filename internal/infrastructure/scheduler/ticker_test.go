package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestTickSchedulerFiresImmediately(t *testing.T) {
	t.Parallel()

	fired := make(chan time.Time, 1)
	s := NewTickScheduler(time.Hour)

	ctx := context.Background()
	err := s.Start(ctx, func(now time.Time) {
		select {
		case fired <- now:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() { _ = s.Stop(ctx) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("job did not fire on start")
	}
}

func TestTickSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewTickScheduler(time.Hour)
	ctx := context.Background()

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}
}
