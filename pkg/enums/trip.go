package enums

// TripStatus values are stored exactly as shown to dispatchers.
type TripStatus string

const (
	TripStatusPlanned   TripStatus = "Planned"
	TripStatusOnRoute   TripStatus = "On Route"
	TripStatusDelivered TripStatus = "Delivered"
	TripStatusCancelled TripStatus = "Cancelled"
)

var validTripStatuses = []TripStatus{
	TripStatusPlanned,
	TripStatusOnRoute,
	TripStatusDelivered,
	TripStatusCancelled,
}

var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusPlanned: {TripStatusOnRoute, TripStatusCancelled},
	TripStatusOnRoute: {TripStatusDelivered, TripStatusCancelled},
}

func (s TripStatus) String() string { return string(s) }

func (s TripStatus) IsValid() bool { return contains(s, validTripStatuses) }

// IsActive is true while the trip still holds its orders.
func (s TripStatus) IsActive() bool { return s != TripStatusCancelled }

func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	return contains(next, tripTransitions[s])
}

func ParseTripStatus(value string) (TripStatus, error) {
	return parse("trip status", value, validTripStatuses)
}

// StopType identifies what a route stop refers to.
type StopType string

const (
	StopTypeWarehouse StopType = "warehouse"
	StopTypeCustomer  StopType = "customer"
	StopTypeVendor    StopType = "vendor"
)

var validStopTypes = []StopType{StopTypeWarehouse, StopTypeCustomer, StopTypeVendor}

func (s StopType) String() string { return string(s) }

func (s StopType) IsValid() bool { return contains(s, validStopTypes) }

func ParseStopType(value string) (StopType, error) {
	return parse("stop type", value, validStopTypes)
}
