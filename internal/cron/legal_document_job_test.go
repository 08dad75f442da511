package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/legaldocs"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

type recordingEmitter struct{ events []outbox.DomainEvent }

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, e outbox.DomainEvent) error {
	r.events = append(r.events, e)
	return nil
}

func TestLegalDocumentJobExpiresAndWarnsOnce(t *testing.T) {
	conn := dbtest.Open(t, dbtest.LegalDocuments)
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	seed := func(status enums.LegalDocumentStatus, expiresInDays int) models.LegalDocument {
		exp := now.AddDate(0, 0, expiresInDays)
		d := models.LegalDocument{
			ID: uuid.New(), StoreID: uuid.New(), Type: enums.LegalDocumentBusinessLicense, Status: status,
			FileURL: "https://files.test/doc.pdf", ExpiresAt: &exp,
			AcceptedBy: uuid.New(), AcceptedAt: now.AddDate(-1, 0, 0), AcceptedIP: "10.0.0.1",
		}
		require.NoError(t, conn.Create(&d).Error)
		return d
	}
	past := seed(enums.LegalDocumentStatusVerified, -2)
	soon := seed(enums.LegalDocumentStatusVerified, 12)
	seed(enums.LegalDocumentStatusVerified, 45)
	seed(enums.LegalDocumentStatusReceived, 5)

	emitter := &recordingEmitter{}
	jobIface, err := NewLegalDocumentJob(LegalDocumentJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		DB:        db.Wrap(conn),
		Documents: legaldocs.NewRepository(conn),
		Outbox:    emitter,
	})
	require.NoError(t, err)
	job := jobIface.(*legalDocumentJob)
	job.now = func() time.Time { return now }

	affected, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.Len(t, emitter.events, 2)
	assert.Equal(t, enums.EventDocumentExpired, emitter.events[0].EventType)
	assert.Equal(t, past.ID, emitter.events[0].AggregateID)
	assert.Equal(t, enums.EventDocumentExpiring, emitter.events[1].EventType)
	assert.Equal(t, soon.ID, emitter.events[1].AggregateID)
	assert.Equal(t, enums.AggregateLegalDocument, emitter.events[1].AggregateType)

	var got models.LegalDocument
	require.NoError(t, conn.First(&got, "id = ?", past.ID).Error)
	assert.Equal(t, enums.LegalDocumentStatusExpired, got.Status)

	affected, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Len(t, emitter.events, 2, "a second run emits nothing new")
}

func TestNewLegalDocumentJobRequiresDependencies(t *testing.T) {
	_, err := NewLegalDocumentJob(LegalDocumentJobParams{Logger: logger.New(logger.Options{ServiceName: "test"})})
	assert.Error(t, err)
}
