package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

type fakeCartAbandoner struct {
	cutoff time.Time
	err    error
}

func (f *fakeCartAbandoner) AbandonIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestCartAbandonJobUsesIdleWindow(t *testing.T) {
	now := time.Date(2026, 5, 31, 8, 0, 0, 0, time.UTC)
	repo := &fakeCartAbandoner{}
	jobIface, err := NewCartAbandonJob(CartAbandonJobParams{Logger: logger.Nop(), Repository: repo})
	if err != nil {
		t.Fatalf("NewCartAbandonJob: %v", err)
	}
	job := jobIface.(*cartAbandonJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultCartIdleTTL); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	if job.Name() != "cart-abandon" {
		t.Fatalf("unexpected name %q", job.Name())
	}
}

func TestCartAbandonJobErrors(t *testing.T) {
	if _, err := NewCartAbandonJob(CartAbandonJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error for missing repository")
	}
	job, _ := NewCartAbandonJob(CartAbandonJobParams{
		Logger:     logger.Nop(),
		Repository: &fakeCartAbandoner{err: errors.New("db down")},
		IdleAfter:  time.Hour,
	})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
