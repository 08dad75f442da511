package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/metrics"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

const (
	defaultBatchSize     = 50
	defaultMaxAttempts   = 10
	defaultHandleTimeout = 15 * time.Second
	maxBackoff           = 10 * time.Second
	maxRetryDelay        = 30 * time.Minute
	jitterWindow         = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchDue(tx *gorm.DB, limit, maxAttempts int, now time.Time) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID, now time.Time) error
	MarkFailed(tx *gorm.DB, id uuid.UUID, cause error, nextAttemptAt time.Time) error
}

type handlerResolver interface {
	Resolve(eventType enums.OutboxEventType) []outbox.Handler
}

type consumerGuard interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Complete(ctx context.Context, consumer string, eventID uuid.UUID) error
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Registry   handlerResolver
	Guard      consumerGuard
	Metrics    *metrics.OutboxMetrics
	Now        func() time.Time
}

// Service drains due outbox rows into their in-process handlers.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	registry     handlerResolver
	guard        consumerGuard
	metrics      *metrics.OutboxMetrics
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("handler registry is required")
	}
	if params.Guard == nil {
		return nil, errors.New("consumer idempotency guard is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		registry:     params.Registry,
		guard:        params.Guard,
		metrics:      params.Metrics,
		now:          now,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: params.Config.Outbox.PollInterval(),
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox dispatcher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox dispatcher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch locks one batch of due rows and settles each of them. A
// failing event is rescheduled; it never blocks the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchDue(tx, s.batchSize, s.maxAttempts, s.now().UTC())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, row := range events {
			fields := s.eventFields(row)
			if err := s.dispatch(ctx, row); err != nil {
				s.metrics.IncFailed(string(row.EventType))
				attempt := row.AttemptCount + 1
				fields["attempt_count"] = attempt
				logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
				if attempt >= s.maxAttempts {
					s.logg.Warn(logCtx, "outbox event will not be retried")
				} else {
					s.logg.Warn(logCtx, "outbox dispatch failed")
				}
				next := s.now().UTC().Add(retryDelay(s.pollInterval, attempt))
				if markErr := s.repo.MarkFailed(tx, row.ID, err, next); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", row.ID, markErr)
				}
				continue
			}

			if markErr := s.repo.MarkPublished(tx, row.ID, s.now().UTC()); markErr != nil {
				return fmt.Errorf("mark published %s: %w", row.ID, markErr)
			}
			s.metrics.IncDispatched(string(row.EventType))
			s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event dispatched")
		}
		return nil
	})
	return processed, err
}

// dispatch runs every handler subscribed to the row's type. A handler that
// holds or completed a claim on the event is skipped; a failed handler
// releases its claim so the retry reaches it again.
func (s *Service) dispatch(ctx context.Context, row models.OutboxEvent) error {
	env, err := outbox.ParseEnvelope(row.Payload)
	if err != nil {
		return err
	}
	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		return err
	}
	event := outbox.Event{Row: row, Envelope: env}

	var errs error
	for _, handler := range s.registry.Resolve(row.EventType) {
		name := handler.Name()
		claimed, err := s.guard.Claim(ctx, name, eventID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s idempotency: %w", name, err))
			continue
		}
		if !claimed {
			continue
		}

		handleCtx, cancel := context.WithTimeout(ctx, defaultHandleTimeout)
		err = handler.Handle(handleCtx, event)
		cancel()
		if err != nil {
			if relErr := s.guard.Release(ctx, name, eventID); relErr != nil {
				err = multierr.Append(err, relErr)
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := s.guard.Complete(ctx, name, eventID); err != nil {
			// the claim lease still covers the retry window
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"consumer": name, "event_id": eventID.String(), "error": err.Error()}), "outbox consumer completion not recorded")
		}
	}
	return errs
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"batch_size":     s.batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

// retryDelay doubles per attempt from base, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return withJitter(maxRetryDelay)
		}
	}
	return withJitter(d)
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
