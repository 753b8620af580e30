package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

const (
	defaultNotificationRetentionDays = 30
	notificationDeleteBatch          = 500
)

type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Repository    notificationPruner
	RetentionDays int
	// BatchSize caps rows removed per statement.
	BatchSize     int
}

type notificationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// NewNotificationCleanupJob deletes inbox rows older than RetentionDays,
// read or not.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Repository == nil:
		return nil, fmt.Errorf("notifications repository required")
	}
	job := &notificationCleanupJob{
		logg:  params.Logger,
		repo:  params.Repository,
		days:  params.RetentionDays,
		batch: params.BatchSize,
		now:   time.Now,
	}
	if job.days <= 0 {
		job.days = defaultNotificationRetentionDays
	}
	if job.batch <= 0 {
		job.batch = notificationDeleteBatch
	}
	return job, nil
}

type notificationCleanupJob struct {
	logg  *logger.Logger
	repo  notificationPruner
	days  int
	batch int
	now   func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

// Run deletes in batches until one comes back short, so a large backlog
// never holds one long lock on the table.
func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	var total int64
	batches := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		deleted, err := j.repo.DeleteOlderThan(ctx, cutoff, j.batch)
		if err != nil {
			return fmt.Errorf("notification cleanup after %d rows: %w", total, err)
		}
		total += deleted
		batches++
		if deleted < int64(j.batch) {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   total,
		"batches":        batches,
	}), "notification cleanup complete")
	return nil
}
