// Package pricing computes cart and order totals in integer minor units.
package pricing

import (
	"time"
)

// Line is a single priced entry: either a purchase or a rental of one toy.
type Line struct {
	UnitPrice       int64 // minor units; rental lines carry the per-day rate
	Quantity        int32
	IsRental        bool
	RentalStartDate time.Time
	RentalEndDate   time.Time
}

// Summary is the aggregate price of a set of lines.
type Summary struct {
	Subtotal int64  `json:"subtotal"`
	VAT      int64  `json:"vat"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// Engine applies the tax policy configured for the store.
type Engine struct {
	VATRateBPS int64
	Currency   string
}

func NewEngine(vatRateBPS int64, currency string) Engine {
	return Engine{VATRateBPS: vatRateBPS, Currency: currency}
}

// RentalDays returns the chargeable days between two dates, never less
// than one. The order of arguments does not matter.
func RentalDays(start, end time.Time) int32 {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	days := int32((diff + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// LineTotal prices a single line. Rental lines multiply the per-day rate
// by chargeable days and quantity.
func (e Engine) LineTotal(l Line) int64 {
	if l.Quantity <= 0 {
		return 0
	}
	if l.IsRental {
		days := RentalDays(l.RentalStartDate, l.RentalEndDate)
		return l.UnitPrice * int64(days) * int64(l.Quantity)
	}
	return l.UnitPrice * int64(l.Quantity)
}

// Compute sums all lines and applies VAT on the subtotal. All arithmetic
// stays in integer minor units so totals are exact.
func (e Engine) Compute(lines []Line) Summary {
	var subtotal int64
	for _, l := range lines {
		subtotal += e.LineTotal(l)
	}
	vat := subtotal * e.VATRateBPS / 10000
	return Summary{
		Subtotal: subtotal,
		VAT:      vat,
		Total:    subtotal + vat,
		Currency: e.Currency,
	}
}
