package stores

import "github.com/producehub/producehub-backend/pkg/enums"

// Totals is the raw per-store aggregate read from storage.
type Totals struct {
	OrderCount     int64
	SpentCents     int64
	PastTermsCents int64
	PaidCents      int64
}

// Derive computes balance and payment status. Payments are applied to the
// oldest orders first, so a store is overdue when what it has paid does not
// cover the orders already past payment terms.
func Derive(t Totals) Financials {
	balance := max(t.SpentCents-t.PaidCents, 0)

	fin := Financials{
		TotalOrders:     t.OrderCount,
		TotalSpentCents: t.SpentCents,
		TotalPaidCents:  t.PaidCents,
		BalanceDueCents: balance,
	}
	switch {
	case balance == 0:
		fin.PaymentStatus = enums.PaymentStatusPaid
	case t.PastTermsCents > t.PaidCents:
		fin.PaymentStatus = enums.PaymentStatusOverdue
	case t.PaidCents > 0:
		fin.PaymentStatus = enums.PaymentStatusPartial
	default:
		fin.PaymentStatus = enums.PaymentStatusUnpaid
	}
	return fin
}
