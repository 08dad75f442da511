package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// LegalDocument is a compliance document submitted by a store.
type LegalDocument struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	StoreID          uuid.UUID                 `gorm:"column:store_id;type:uuid;not null"`
	Type             enums.LegalDocumentType   `gorm:"column:type;type:text;not null"`
	Status           enums.LegalDocumentStatus `gorm:"column:status;type:text;not null"`
	DocumentNumber   *string                   `gorm:"column:document_number"`
	FileURL          string                    `gorm:"column:file_url;not null"`
	ExpiresAt        *time.Time                `gorm:"column:expires_at"`
	AcceptedBy       uuid.UUID                 `gorm:"column:accepted_by;type:uuid;not null"`
	AcceptedAt       time.Time                 `gorm:"column:accepted_at;not null"`
	AcceptedIP       string                    `gorm:"column:accepted_ip;not null"`
	VerifiedBy       *uuid.UUID                `gorm:"column:verified_by;type:uuid"`
	VerifiedAt       *time.Time                `gorm:"column:verified_at"`
	RejectionReason  *string                   `gorm:"column:rejection_reason"`
	ExpiryNotifiedAt *time.Time                `gorm:"column:expiry_notified_at"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
