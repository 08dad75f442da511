package enums

// NotificationType maps to the notification_type column.
type NotificationType string

const (
	NotificationTypeOrderPlaced      NotificationType = "order_placed"
	NotificationTypeOrderStatus      NotificationType = "order_status"
	NotificationTypeStoreRegistered  NotificationType = "store_registered"
	NotificationTypeStoreApproved    NotificationType = "store_approved"
	NotificationTypeStoreRejected    NotificationType = "store_rejected"
	NotificationTypeChequeBounced    NotificationType = "cheque_bounced"
	NotificationTypeChequeCleared    NotificationType = "cheque_cleared"
	NotificationTypePaymentReceived  NotificationType = "payment_received"
	NotificationTypeTripAssigned     NotificationType = "trip_assigned"
	NotificationTypeDocumentExpiring NotificationType = "document_expiring"
	NotificationTypeSystem           NotificationType = "system"
)

// NotificationDisplay is the presentation metadata a client renders per type.
type NotificationDisplay struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Label string `json:"label"`
}

var notificationDisplays = map[NotificationType]NotificationDisplay{
	NotificationTypeOrderPlaced:      {Icon: "shopping-cart", Color: "blue", Label: "New Order"},
	NotificationTypeOrderStatus:      {Icon: "package", Color: "indigo", Label: "Order Update"},
	NotificationTypeStoreRegistered:  {Icon: "store", Color: "purple", Label: "Store Registration"},
	NotificationTypeStoreApproved:    {Icon: "check-circle", Color: "green", Label: "Store Approved"},
	NotificationTypeStoreRejected:    {Icon: "x-circle", Color: "red", Label: "Store Rejected"},
	NotificationTypeChequeBounced:    {Icon: "alert-triangle", Color: "red", Label: "Cheque Bounced"},
	NotificationTypeChequeCleared:    {Icon: "check", Color: "green", Label: "Cheque Cleared"},
	NotificationTypePaymentReceived:  {Icon: "dollar-sign", Color: "emerald", Label: "Payment Received"},
	NotificationTypeTripAssigned:     {Icon: "truck", Color: "orange", Label: "Trip Assigned"},
	NotificationTypeDocumentExpiring: {Icon: "file-warning", Color: "amber", Label: "Document Expiring"},
	NotificationTypeSystem:           {Icon: "bell", Color: "gray", Label: "System"},
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	_, ok := notificationDisplays[n]
	return ok
}

func (n NotificationType) String() string { return string(n) }

// Display returns presentation metadata, falling back to the system style.
func (n NotificationType) Display() NotificationDisplay {
	if d, ok := notificationDisplays[n]; ok {
		return d
	}
	return notificationDisplays[NotificationTypeSystem]
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	n := NotificationType(value)
	if !n.IsValid() {
		var zero NotificationType
		return zero, errInvalid("notification type", value)
	}
	return n, nil
}
