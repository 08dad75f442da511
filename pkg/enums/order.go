package enums

// OrderStatus is the fulfilment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// AllOrderStatuses lists statuses in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), validOrderStatuses...)
}

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool { return contains(s, validOrderStatuses) }

// CanTransitionTo reports whether next is a legal successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return contains(next, orderTransitions[s])
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", value, validOrderStatuses)
}

// PricingType selects which product price a line item is charged at.
type PricingType string

const (
	PricingTypeBox  PricingType = "box"
	PricingTypeUnit PricingType = "unit"
)

var validPricingTypes = []PricingType{PricingTypeBox, PricingTypeUnit}

func (p PricingType) String() string { return string(p) }

func (p PricingType) IsValid() bool { return contains(p, validPricingTypes) }

func ParsePricingType(value string) (PricingType, error) {
	return parse("pricing type", value, validPricingTypes)
}
