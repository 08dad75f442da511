package enums

// ApprovalStatus tracks the onboarding decision for a store.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

var validApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
}

// String implements fmt.Stringer.
func (s ApprovalStatus) String() string { return string(s) }

// IsValid reports whether the value is a known ApprovalStatus.
func (s ApprovalStatus) IsValid() bool { return contains(s, validApprovalStatuses) }

// ParseApprovalStatus converts raw input into an ApprovalStatus.
func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	return parse("approval status", value, validApprovalStatuses)
}

// PaymentStatus is the derived settlement state of a store's account.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPaid,
	PaymentStatusPartial,
	PaymentStatusUnpaid,
	PaymentStatusOverdue,
}

func (s PaymentStatus) String() string { return string(s) }

func (s PaymentStatus) IsValid() bool { return contains(s, validPaymentStatuses) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse("payment status", value, validPaymentStatuses)
}
