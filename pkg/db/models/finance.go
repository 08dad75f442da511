package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// Cheque is a paper cheque received from a store.
type Cheque struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	StoreID       uuid.UUID          `gorm:"column:store_id;type:uuid;not null"`
	ChequeNumber  string             `gorm:"column:cheque_number;not null"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	ChequeDate    time.Time          `gorm:"column:cheque_date;type:date;not null"`
	Status        enums.ChequeStatus `gorm:"column:status;type:text;not null"`
	ClearedDate   *time.Time         `gorm:"column:cleared_date"`
	BankReference *string            `gorm:"column:bank_reference"`
	Notes         *string            `gorm:"column:notes"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Payment is money received outside the cheque workflow.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID           `gorm:"column:store_id;type:uuid;not null"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Method      enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Reference   *string             `gorm:"column:reference"`
	RecordedBy  uuid.UUID           `gorm:"column:recorded_by;type:uuid;not null"`
	ReceivedAt  time.Time           `gorm:"column:received_at;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// LedgerEntry is an append-only movement on a store's credit account.
type LedgerEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	StoreID       uuid.UUID             `gorm:"column:store_id;type:uuid;not null"`
	Type          enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	AmountCents   int64                 `gorm:"column:amount_cents;not null"`
	ReferenceType string                `gorm:"column:reference_type;not null"`
	ReferenceID   uuid.UUID             `gorm:"column:reference_id;type:uuid;not null"`
	Description   string                `gorm:"column:description;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
