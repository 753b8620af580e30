package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

const defaultCartIdleTTL = 30 * 24 * time.Hour

type CartAbandonJobParams struct {
	Logger     *logger.Logger
	Repository cartAbandoner
	IdleAfter  time.Duration
}

type cartAbandoner interface {
	AbandonIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCartAbandonJob marks active carts untouched for IdleAfter as abandoned.
func NewCartAbandonJob(params CartAbandonJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	idle := params.IdleAfter
	if idle <= 0 {
		idle = defaultCartIdleTTL
	}
	return &cartAbandonJob{
		logg: params.Logger,
		repo: params.Repository,
		idle: idle,
		now:  time.Now,
	}, nil
}

type cartAbandonJob struct {
	logg *logger.Logger
	repo cartAbandoner
	idle time.Duration
	now  func() time.Time
}

func (j *cartAbandonJob) Name() string { return "cart-abandon" }

func (j *cartAbandonJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.idle)
	abandoned, err := j.repo.AbandonIdle(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("abandon idle carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"carts_abandoned": abandoned,
	}), "idle carts abandoned")
	return nil
}
