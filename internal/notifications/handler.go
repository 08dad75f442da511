package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

// EventHandler turns domain events into inbox notifications.
type EventHandler struct {
	service Service
}

func NewEventHandler(service Service) (*EventHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	return &EventHandler{service: service}, nil
}

func (h *EventHandler) Name() string { return "notifications" }

// EventTypes lists the events that produce notifications.
func (h *EventHandler) EventTypes() []enums.OutboxEventType {
	return []enums.OutboxEventType{
		enums.EventStoreRegistered,
		enums.EventStoreApproved,
		enums.EventStoreRejected,
		enums.EventOrderPlaced,
		enums.EventOrderStatusChanged,
		enums.EventPreOrderConverted,
		enums.EventTripCreated,
		enums.EventChequeStatusChanged,
		enums.EventPaymentRecorded,
		enums.EventDocumentExpiring,
		enums.EventDocumentExpired,
	}
}

func (h *EventHandler) Handle(ctx context.Context, event outbox.Event) error {
	eventID, err := uuid.Parse(event.Envelope.EventID)
	if err != nil {
		return fmt.Errorf("notification event id: %w", err)
	}
	inputs, err := build(event)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		in.EventID = &eventID
		if _, err := h.service.Notify(ctx, nil, in); err != nil {
			return err
		}
	}
	return nil
}

func store(id uuid.UUID) *uuid.UUID { return &id }

// build maps one event to the notifications it produces. Admin inbox
// entries carry a nil StoreID.
func build(event outbox.Event) ([]NotifyInput, error) {
	env := event.Envelope
	switch event.Row.EventType {
	case enums.EventStoreRegistered:
		data, err := outbox.DecodeData[outbox.StoreRegisteredEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			Type:    enums.NotificationTypeStoreRegistered,
			Title:   "New store registration",
			Message: fmt.Sprintf("%s registered (%s) and is waiting for approval.", data.Name, data.RegistrationRef),
			Link:    "/admin/stores/" + data.StoreID.String(),
		}}, nil

	case enums.EventStoreApproved, enums.EventStoreRejected:
		data, err := outbox.DecodeData[outbox.StoreDecisionEvent](env)
		if err != nil {
			return nil, err
		}
		if data.Status == enums.ApprovalStatusRejected {
			msg := "Your store registration was rejected."
			if data.Reason != "" {
				msg = "Your store registration was rejected. Reason: " + data.Reason
			}
			return []NotifyInput{{StoreID: store(data.StoreID), Type: enums.NotificationTypeStoreRejected, Title: "Registration rejected", Message: msg}}, nil
		}
		return []NotifyInput{{
			StoreID: store(data.StoreID),
			Type:    enums.NotificationTypeStoreApproved,
			Title:   "Store approved",
			Message: data.Name + " is approved. You can now place orders.",
			Link:    "/store/dashboard",
		}}, nil

	case enums.EventOrderPlaced:
		data, err := outbox.DecodeData[outbox.OrderPlacedEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "New order " + data.OrderNumber,
			Message: fmt.Sprintf("Order %s was placed for %s.", data.OrderNumber, formatCents(data.TotalCents)),
			Link:    "/admin/orders/" + data.OrderID.String(),
		}}, nil

	case enums.EventOrderStatusChanged:
		data, err := outbox.DecodeData[outbox.OrderStatusChangedEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			StoreID: store(data.StoreID),
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order " + data.OrderNumber + " " + string(data.To),
			Message: fmt.Sprintf("Order %s moved from %s to %s.", data.OrderNumber, data.From, data.To),
			Link:    "/store/orders/" + data.OrderID.String(),
		}}, nil

	case enums.EventPreOrderConverted:
		data, err := outbox.DecodeData[outbox.PreOrderConvertedEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			StoreID: store(data.StoreID),
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "Pre-order confirmed as " + data.OrderNumber,
			Message: "Your pre-order was converted into order " + data.OrderNumber + ".",
			Link:    "/store/orders/" + data.OrderID.String(),
		}}, nil

	case enums.EventTripCreated:
		data, err := outbox.DecodeData[outbox.TripCreatedEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			Type:    enums.NotificationTypeTripAssigned,
			Title:   "Trip planned for " + data.TripDate.Format("2006-01-02"),
			Message: fmt.Sprintf("A trip with %d orders was assigned.", len(data.OrderIDs)),
			Link:    "/admin/trips/" + data.TripID.String(),
		}}, nil

	case enums.EventChequeStatusChanged:
		data, err := outbox.DecodeData[outbox.ChequeStatusChangedEvent](env)
		if err != nil {
			return nil, err
		}
		switch data.To {
		case enums.ChequeStatusBounced:
			msg := fmt.Sprintf("Cheque %s for %s bounced.", data.ChequeNumber, formatCents(data.AmountCents))
			return []NotifyInput{
				{StoreID: store(data.StoreID), Type: enums.NotificationTypeChequeBounced, Title: "Cheque bounced", Message: msg + " Please arrange another payment."},
				{Type: enums.NotificationTypeChequeBounced, Title: "Cheque bounced", Message: msg, Link: "/admin/cheques/" + data.ChequeID.String()},
			}, nil
		case enums.ChequeStatusCleared:
			return []NotifyInput{{
				StoreID: store(data.StoreID),
				Type:    enums.NotificationTypeChequeCleared,
				Title:   "Cheque cleared",
				Message: fmt.Sprintf("Cheque %s for %s cleared.", data.ChequeNumber, formatCents(data.AmountCents)),
			}}, nil
		}
		return nil, nil

	case enums.EventPaymentRecorded:
		data, err := outbox.DecodeData[outbox.PaymentRecordedEvent](env)
		if err != nil {
			return nil, err
		}
		return []NotifyInput{{
			StoreID: store(data.StoreID),
			Type:    enums.NotificationTypePaymentReceived,
			Title:   "Payment received",
			Message: fmt.Sprintf("We received %s by %s.", formatCents(data.AmountCents), data.Method),
		}}, nil

	case enums.EventDocumentExpiring, enums.EventDocumentExpired:
		data, err := outbox.DecodeData[outbox.DocumentLifecycleEvent](env)
		if err != nil {
			return nil, err
		}
		when := "soon"
		if data.ExpiresAt != nil {
			when = "on " + data.ExpiresAt.Format("2006-01-02")
		}
		msg := fmt.Sprintf("Your %s expires %s.", humanize(string(data.Type)), when)
		title := "Document expiring"
		if event.Row.EventType == enums.EventDocumentExpired {
			msg = fmt.Sprintf("Your %s has expired. Please upload a new one.", humanize(string(data.Type)))
			title = "Document expired"
		}
		return []NotifyInput{
			{StoreID: store(data.StoreID), Type: enums.NotificationTypeDocumentExpiring, Title: title, Message: msg, Link: "/store/documents"},
			{Type: enums.NotificationTypeDocumentExpiring, Title: title, Message: fmt.Sprintf("Store %s: %s", data.StoreID, msg), Link: "/admin/stores/" + data.StoreID.String()},
		}, nil
	}
	return nil, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func humanize(s string) string { return strings.ReplaceAll(s, "_", " ") }
