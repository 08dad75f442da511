package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

const expiryWarningDays = 30

// LegalDocumentJobParams configures the scheduled legal document work.
type LegalDocumentJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Documents   legalDocumentRepository
	Outbox      outbox.Emitter
	WarningDays int
}

type legalDocumentRepository interface {
	FindExpiringUnnotified(ctx context.Context, from, to time.Time) ([]models.LegalDocument, error)
	FindExpiredVerified(ctx context.Context, cutoff time.Time) ([]models.LegalDocument, error)
	MarkExpiryNotified(tx *gorm.DB, id uuid.UUID, at time.Time) (int64, error)
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.LegalDocumentStatus, fields map[string]any) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewLegalDocumentJob constructs the legal document lifecycle job.
func NewLegalDocumentJob(params LegalDocumentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("legal document repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	warning := params.WarningDays
	if warning <= 0 {
		warning = expiryWarningDays
	}
	return &legalDocumentJob{
		logg:    params.Logger,
		db:      params.DB,
		docs:    params.Documents,
		outbox:  params.Outbox,
		warning: warning,
		now:     time.Now,
	}, nil
}

type legalDocumentJob struct {
	logg    *logger.Logger
	db      txRunner
	docs    legalDocumentRepository
	outbox  outbox.Emitter
	warning int
	now     func() time.Time
}

func (j *legalDocumentJob) Name() string { return "legal-document-lifecycle" }

// Run expires lapsed documents before warning, so a document that lapsed
// since the previous cycle is never warned about.
func (j *legalDocumentJob) Run(ctx context.Context) (int64, error) {
	now := j.now().UTC()
	expired, expireErr := j.expireDocuments(ctx, now)
	warned, warnErr := j.warnExpiring(ctx, now)
	return expired + warned, multierr.Combine(expireErr, warnErr)
}

// expireDocuments moves verified documents past their expiry to expired.
func (j *legalDocumentJob) expireDocuments(ctx context.Context, now time.Time) (int64, error) {
	docs, err := j.docs.FindExpiredVerified(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("query expired documents: %w", err)
	}
	count, errs := j.each(ctx, docs, "expire", func(tx *gorm.DB, doc models.LegalDocument) (bool, error) {
		n, err := j.docs.TransitionStatus(tx, doc.ID, enums.LegalDocumentStatusVerified, enums.LegalDocumentStatusExpired, nil)
		if err != nil || n == 0 {
			return false, err
		}
		return true, j.emit(ctx, tx, enums.EventDocumentExpired, doc, now)
	})
	j.logg.Info(j.logg.WithField(ctx, "count", count), "legal documents expired")
	return count, errs
}

// warnExpiring emits one document_expiring event per verified document
// entering the warning window; the notified stamp keeps it to one.
func (j *legalDocumentJob) warnExpiring(ctx context.Context, now time.Time) (int64, error) {
	docs, err := j.docs.FindExpiringUnnotified(ctx, now, now.AddDate(0, 0, j.warning))
	if err != nil {
		return 0, fmt.Errorf("query expiring documents: %w", err)
	}
	count, errs := j.each(ctx, docs, "warn", func(tx *gorm.DB, doc models.LegalDocument) (bool, error) {
		n, err := j.docs.MarkExpiryNotified(tx, doc.ID, now)
		if err != nil || n == 0 {
			return false, err
		}
		return true, j.emit(ctx, tx, enums.EventDocumentExpiring, doc, now)
	})
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"count": count, "warning_days": j.warning}), "legal document expiry warnings sent")
	return count, errs
}

// each applies step to every document in its own transaction and counts
// the documents step changed.
func (j *legalDocumentJob) each(ctx context.Context, docs []models.LegalDocument, verb string, step func(*gorm.DB, models.LegalDocument) (bool, error)) (int64, error) {
	var count int64
	var errs error
	for _, doc := range docs {
		changed := false
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			changed, err = step(tx, doc)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s document %s: %w", verb, doc.ID, err))
			continue
		}
		if changed {
			count++
		}
	}
	return count, errs
}

func (j *legalDocumentJob) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, doc models.LegalDocument, at time.Time) error {
	return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateLegalDocument,
		AggregateID:   doc.ID,
		Data: outbox.DocumentLifecycleEvent{
			DocumentID: doc.ID,
			StoreID:    doc.StoreID,
			Type:       doc.Type,
			ExpiresAt:  doc.ExpiresAt,
		},
		Version:    1,
		OccurredAt: at,
	})
}
