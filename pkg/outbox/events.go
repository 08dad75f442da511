package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// Payloads carried in PayloadEnvelope.Data, version 1.

type StoreRegisteredEvent struct {
	StoreID         uuid.UUID `json:"store_id"`
	Name            string    `json:"name"`
	RegistrationRef string    `json:"registration_ref"`
}

type StoreDecisionEvent struct {
	StoreID uuid.UUID            `json:"store_id"`
	Name    string               `json:"name"`
	Status  enums.ApprovalStatus `json:"status"`
	Reason  string               `json:"reason,omitempty"`
}

type OrderPlacedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     uuid.UUID `json:"store_id"`
	TotalCents  int64     `json:"total_cents"`
}

type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	StoreID     uuid.UUID         `json:"store_id"`
	TotalCents  int64             `json:"total_cents"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

type PreOrderConvertedEvent struct {
	PreOrderID  uuid.UUID `json:"preorder_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     uuid.UUID `json:"store_id"`
}

type TripCreatedEvent struct {
	TripID   uuid.UUID   `json:"trip_id"`
	DriverID uuid.UUID   `json:"driver_id"`
	TripDate time.Time   `json:"trip_date"`
	OrderIDs []uuid.UUID `json:"order_ids"`
}

type TripStatusChangedEvent struct {
	TripID uuid.UUID        `json:"trip_id"`
	From   enums.TripStatus `json:"from"`
	To     enums.TripStatus `json:"to"`
}

type ChequeStatusChangedEvent struct {
	ChequeID     uuid.UUID          `json:"cheque_id"`
	StoreID      uuid.UUID          `json:"store_id"`
	ChequeNumber string             `json:"cheque_number"`
	AmountCents  int64              `json:"amount_cents"`
	From         enums.ChequeStatus `json:"from"`
	To           enums.ChequeStatus `json:"to"`
}

type PaymentRecordedEvent struct {
	PaymentID   uuid.UUID           `json:"payment_id"`
	StoreID     uuid.UUID           `json:"store_id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
}

type DocumentLifecycleEvent struct {
	DocumentID uuid.UUID               `json:"document_id"`
	StoreID    uuid.UUID               `json:"store_id"`
	Type       enums.LegalDocumentType `json:"type"`
	ExpiresAt  *time.Time              `json:"expires_at,omitempty"`
}
