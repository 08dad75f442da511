package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/logger"
)

const (
	DefaultNotificationRetention = 90 * 24 * time.Hour
	DefaultOutboxRetention       = 30 * 24 * time.Hour
)

type readNotificationPurger interface {
	DeleteReadOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type publishedEventPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// retentionJob deletes rows older than now minus window through purge.
type retentionJob struct {
	name   string
	logg   *logger.Logger
	window time.Duration
	purge  func(ctx context.Context, cutoff time.Time) (int64, error)
	now    func() time.Time
}

// NewNotificationRetentionJob purges read notifications past the window.
// Unread notifications are kept regardless of age.
func NewNotificationRetentionJob(logg *logger.Logger, db txRunner, repo readNotificationPurger, window time.Duration) (Job, error) {
	if db == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return newRetentionJob("notification-retention", logg, window, DefaultNotificationRetention,
		func(ctx context.Context, cutoff time.Time) (int64, error) {
			var deleted int64
			err := db.WithTx(ctx, func(tx *gorm.DB) error {
				n, err := repo.DeleteReadOlderThan(ctx, tx, cutoff)
				deleted = n
				return err
			})
			return deleted, err
		})
}

// NewOutboxRetentionJob purges published outbox events past the window.
// Pending and failing rows stay for inspection.
func NewOutboxRetentionJob(logg *logger.Logger, repo publishedEventPurger, window time.Duration) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return newRetentionJob("outbox-retention", logg, window, DefaultOutboxRetention, repo.DeletePublishedBefore)
}

func newRetentionJob(name string, logg *logger.Logger, window, fallback time.Duration, purge func(context.Context, time.Time) (int64, error)) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if window <= 0 {
		window = fallback
	}
	return &retentionJob{name: name, logg: logg, window: window, purge: purge, now: time.Now}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.window)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"window_hours": int(j.window.Hours()),
		"rows_deleted": deleted,
	}), "retention purge complete")
	return deleted, nil
}
