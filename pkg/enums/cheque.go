package enums

// ChequeStatus is the clearing lifecycle of a received cheque.
type ChequeStatus string

const (
	ChequeStatusPending   ChequeStatus = "pending"
	ChequeStatusCleared   ChequeStatus = "cleared"
	ChequeStatusBounced   ChequeStatus = "bounced"
	ChequeStatusCancelled ChequeStatus = "cancelled"
)

var validChequeStatuses = []ChequeStatus{
	ChequeStatusPending,
	ChequeStatusCleared,
	ChequeStatusBounced,
	ChequeStatusCancelled,
}

// A cleared cheque may still come back from the bank.
var chequeTransitions = map[ChequeStatus][]ChequeStatus{
	ChequeStatusPending: {ChequeStatusCleared, ChequeStatusBounced, ChequeStatusCancelled},
	ChequeStatusCleared: {ChequeStatusBounced},
}

func (s ChequeStatus) String() string { return string(s) }

func (s ChequeStatus) IsValid() bool { return contains(s, validChequeStatuses) }

func (s ChequeStatus) CanTransitionTo(next ChequeStatus) bool {
	return contains(next, chequeTransitions[s])
}

func ParseChequeStatus(value string) (ChequeStatus, error) {
	return parse("cheque status", value, validChequeStatuses)
}

// PaymentMethod records how a store settled an amount.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCheque   PaymentMethod = "cheque"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodTransfer,
	PaymentMethodCheque,
}

func (m PaymentMethod) String() string { return string(m) }

func (m PaymentMethod) IsValid() bool { return contains(m, validPaymentMethods) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse("payment method", value, validPaymentMethods)
}

// LedgerEntryType is the direction of a credit-ledger movement.
type LedgerEntryType string

const (
	// LedgerEntryCharge increases what the store owes.
	LedgerEntryCharge LedgerEntryType = "charge"
	// LedgerEntryCredit reduces what the store owes.
	LedgerEntryCredit LedgerEntryType = "credit"
	// LedgerEntryReversal re-debits a previously credited amount.
	LedgerEntryReversal LedgerEntryType = "reversal"
)

var validLedgerEntryTypes = []LedgerEntryType{LedgerEntryCharge, LedgerEntryCredit, LedgerEntryReversal}

func (t LedgerEntryType) String() string { return string(t) }

func (t LedgerEntryType) IsValid() bool { return contains(t, validLedgerEntryTypes) }

// Sign returns +1 for entries that raise the balance due and -1 otherwise.
func (t LedgerEntryType) Sign() int64 {
	if t == LedgerEntryCredit {
		return -1
	}
	return 1
}
