package enums

// OutboxEventType names domain events written to outbox_events.
type OutboxEventType string

const (
	EventStoreRegistered     OutboxEventType = "store_registered"
	EventStoreApproved       OutboxEventType = "store_approved"
	EventStoreRejected       OutboxEventType = "store_rejected"
	EventOrderPlaced         OutboxEventType = "order_placed"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventPreOrderConverted   OutboxEventType = "preorder_converted"
	EventTripCreated         OutboxEventType = "trip_created"
	EventTripStatusChanged   OutboxEventType = "trip_status_changed"
	EventChequeStatusChanged OutboxEventType = "cheque_status_changed"
	EventPaymentRecorded     OutboxEventType = "payment_recorded"
	EventDocumentExpiring    OutboxEventType = "document_expiring"
	EventDocumentExpired     OutboxEventType = "document_expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStoreRegistered,
	EventStoreApproved,
	EventStoreRejected,
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventPreOrderConverted,
	EventTripCreated,
	EventTripStatusChanged,
	EventChequeStatusChanged,
	EventPaymentRecorded,
	EventDocumentExpiring,
	EventDocumentExpired,
}

func (e OutboxEventType) String() string { return string(e) }

func (e OutboxEventType) IsValid() bool { return contains(e, validOutboxEventTypes) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("outbox event type", value, validOutboxEventTypes)
}

// OutboxAggregateType names the entity an event belongs to.
type OutboxAggregateType string

const (
	AggregateStore         OutboxAggregateType = "store"
	AggregateOrder         OutboxAggregateType = "order"
	AggregatePreOrder      OutboxAggregateType = "preorder"
	AggregateTrip          OutboxAggregateType = "trip"
	AggregateCheque        OutboxAggregateType = "cheque"
	AggregatePayment       OutboxAggregateType = "payment"
	AggregateLegalDocument OutboxAggregateType = "legal_document"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateStore,
	AggregateOrder,
	AggregatePreOrder,
	AggregateTrip,
	AggregateCheque,
	AggregatePayment,
	AggregateLegalDocument,
}

func (a OutboxAggregateType) String() string { return string(a) }

func (a OutboxAggregateType) IsValid() bool { return contains(a, validOutboxAggregateTypes) }
