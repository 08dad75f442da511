package cheques

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

type ChequeDTO struct {
	ID            uuid.UUID          `json:"id"`
	StoreID       uuid.UUID          `json:"store_id"`
	ChequeNumber  string             `json:"cheque_number"`
	AmountCents   int64              `json:"amount_cents"`
	ChequeDate    time.Time          `json:"cheque_date"`
	Status        enums.ChequeStatus `json:"status"`
	ClearedDate   *time.Time         `json:"cleared_date"`
	BankReference *string            `json:"bank_reference"`
	Notes         *string            `json:"notes"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func FromModel(c models.Cheque) ChequeDTO {
	return ChequeDTO{
		ID:            c.ID,
		StoreID:       c.StoreID,
		ChequeNumber:  c.ChequeNumber,
		AmountCents:   c.AmountCents,
		ChequeDate:    c.ChequeDate,
		Status:        c.Status,
		ClearedDate:   c.ClearedDate,
		BankReference: c.BankReference,
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type CreateInput struct {
	StoreID      uuid.UUID  `json:"store_id"`
	ChequeNumber string     `json:"cheque_number"`
	AmountCents  int64      `json:"amount_cents"`
	ChequeDate   *time.Time `json:"cheque_date"`
	Notes        *string    `json:"notes"`
}

// StatusInput moves a cheque. ClearedDate defaults to now when clearing.
type StatusInput struct {
	Status        enums.ChequeStatus `json:"status"`
	ClearedDate   *time.Time         `json:"cleared_date"`
	BankReference *string            `json:"bank_reference"`
	Notes         *string            `json:"notes"`
}

type ListFilter struct {
	Search  string
	StoreID *uuid.UUID
	Status  *enums.ChequeStatus
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

type ListResult struct {
	Items       []ChequeDTO `json:"items"`
	Total       int         `json:"total"`
	AmountCents int64       `json:"amount_cents"`
}

type PaymentDTO struct {
	ID          uuid.UUID           `json:"id"`
	StoreID     uuid.UUID           `json:"store_id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
	Reference   *string             `json:"reference"`
	RecordedBy  uuid.UUID           `json:"recorded_by"`
	ReceivedAt  time.Time           `json:"received_at"`
}

func PaymentFromModel(p models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		StoreID:     p.StoreID,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		Reference:   p.Reference,
		RecordedBy:  p.RecordedBy,
		ReceivedAt:  p.ReceivedAt,
	}
}

type PaymentInput struct {
	StoreID     uuid.UUID           `json:"store_id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
	Reference   *string             `json:"reference"`
	ReceivedAt  *time.Time          `json:"received_at"`
}
