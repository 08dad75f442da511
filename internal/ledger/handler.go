package ledger

import (
	"context"
	"fmt"

	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

// OrderHandler posts order charges, and the matching credit when an order
// is cancelled, from outbox events.
type OrderHandler struct {
	service Service
	repo    Repository
}

func NewOrderHandler(service Service, repo Repository) (*OrderHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &OrderHandler{service: service, repo: repo}, nil
}

func (h *OrderHandler) Name() string { return "ledger.orders" }

// EventTypes lists the events the handler subscribes to.
func (h *OrderHandler) EventTypes() []enums.OutboxEventType {
	return []enums.OutboxEventType{enums.EventOrderPlaced, enums.EventOrderStatusChanged}
}

func (h *OrderHandler) Handle(ctx context.Context, event outbox.Event) error {
	switch event.Row.EventType {
	case enums.EventOrderPlaced:
		data, err := outbox.DecodeData[outbox.OrderPlacedEvent](event.Envelope)
		if err != nil {
			return err
		}
		return h.post(ctx, RecordInput{
			StoreID:       data.StoreID,
			Type:          enums.LedgerEntryCharge,
			AmountCents:   data.TotalCents,
			ReferenceType: ReferenceOrder,
			ReferenceID:   data.OrderID,
			Description:   "Order " + data.OrderNumber,
		})
	case enums.EventOrderStatusChanged:
		data, err := outbox.DecodeData[outbox.OrderStatusChangedEvent](event.Envelope)
		if err != nil {
			return err
		}
		if data.To != enums.OrderStatusCancelled {
			return nil
		}
		charged, err := h.repo.Exists(ctx, ReferenceOrder, data.OrderID, enums.LedgerEntryCharge)
		if err != nil || !charged {
			return err
		}
		return h.post(ctx, RecordInput{
			StoreID:       data.StoreID,
			Type:          enums.LedgerEntryCredit,
			AmountCents:   data.TotalCents,
			ReferenceType: ReferenceOrder,
			ReferenceID:   data.OrderID,
			Description:   "Order " + data.OrderNumber + " cancelled",
		})
	}
	return nil
}

// post skips entries already recorded so redelivered events stay harmless.
func (h *OrderHandler) post(ctx context.Context, input RecordInput) error {
	if input.AmountCents <= 0 {
		return nil
	}
	exists, err := h.repo.Exists(ctx, input.ReferenceType, input.ReferenceID, input.Type)
	if err != nil || exists {
		return err
	}
	_, err = h.service.Record(ctx, nil, input)
	return err
}
