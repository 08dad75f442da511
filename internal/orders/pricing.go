package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

// Line is a priced line item ready to be totalled.
type Line struct {
	Quantity       int
	PricingType    enums.PricingType
	UnitPriceCents int64
}

// LineTotal is quantity times the captured unit price.
func (l Line) LineTotal() int64 {
	return int64(l.Quantity) * l.UnitPriceCents
}

// Totals is the money breakdown stored on orders and pre-orders.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Pricer totals line items under one tax rate.
type Pricer struct {
	rate decimal.Decimal
}

// NewPricer parses a decimal fraction such as "0.0825".
func NewPricer(taxRate string) (Pricer, error) {
	if taxRate == "" {
		taxRate = "0"
	}
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return Pricer{}, fmt.Errorf("parse tax rate %q: %w", taxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Pricer{}, fmt.Errorf("tax rate %s must be in [0, 1)", rate)
	}
	return Pricer{rate: rate}, nil
}

func (p Pricer) Rate() decimal.Decimal { return p.rate }

// Compute returns subtotal + tax + shipping - discount, with tax rounded
// half-up to the cent. The discount may not exceed the subtotal.
func (p Pricer) Compute(lines []Line, shippingCents, discountCents int64) (Totals, error) {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.LineTotal()
	}
	invalid := map[string]string{}
	if shippingCents < 0 {
		invalid["shipping_cents"] = "must not be negative"
	}
	if discountCents < 0 {
		invalid["discount_cents"] = "must not be negative"
	} else if discountCents > subtotal {
		invalid["discount_cents"] = "must not exceed the subtotal"
	}
	if err := pkgerrors.Fields("invalid order totals", invalid); err != nil {
		return Totals{}, err
	}

	tax := decimal.NewFromInt(subtotal).Mul(p.rate).Round(0).IntPart()
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shippingCents,
		DiscountCents: discountCents,
		TotalCents:    subtotal + tax + shippingCents - discountCents,
	}, nil
}

// FormatNumber renders the sequence value as ORD-000123.
func FormatNumber(n int64) string {
	return fmt.Sprintf("ORD-%06d", n)
}
