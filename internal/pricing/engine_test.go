package pricing

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRentalDaysMinimumOne(t *testing.T) {
	day := date(2025, time.June, 10)
	if got := RentalDays(day, day); got != 1 {
		t.Fatalf("same-day rental: got %d days, want 1", got)
	}
}

func TestRentalDaysSymmetric(t *testing.T) {
	start := date(2025, time.June, 10)
	end := date(2025, time.June, 17)
	forward := RentalDays(start, end)
	reverse := RentalDays(end, start)
	if forward != 7 {
		t.Fatalf("got %d days, want 7", forward)
	}
	if forward != reverse {
		t.Fatalf("reversed dates gave %d days, want %d", reverse, forward)
	}
}

func TestRentalDaysPartialDayRoundsUp(t *testing.T) {
	start := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 12, 15, 0, 0, 0, time.UTC)
	if got := RentalDays(start, end); got != 3 {
		t.Fatalf("got %d days, want 3", got)
	}
}

func TestComputeMixedCart(t *testing.T) {
	e := NewEngine(2000, "GBP")
	lines := []Line{
		{UnitPrice: 1500, Quantity: 1}, // 15.00 purchase
		{UnitPrice: 500, Quantity: 2, IsRental: true,
			RentalStartDate: date(2025, time.June, 10),
			RentalEndDate:   date(2025, time.June, 12)}, // 5.00/day * 2 days * 2
	}
	got := e.Compute(lines)
	if got.Subtotal != 3500 {
		t.Fatalf("subtotal: got %d, want 3500", got.Subtotal)
	}
	if got.VAT != 700 {
		t.Fatalf("vat: got %d, want 700", got.VAT)
	}
	if got.Total != 4200 {
		t.Fatalf("total: got %d, want 4200", got.Total)
	}
	if got.Currency != "GBP" {
		t.Fatalf("currency: got %q, want GBP", got.Currency)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	e := NewEngine(2000, "GBP")
	got := e.Compute(nil)
	if got.Subtotal != 0 || got.VAT != 0 || got.Total != 0 {
		t.Fatalf("empty cart should price to zero, got %+v", got)
	}
}

func TestLineTotalIgnoresNonPositiveQuantity(t *testing.T) {
	e := NewEngine(2000, "GBP")
	if got := e.LineTotal(Line{UnitPrice: 1000, Quantity: 0}); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestComputeVATExactOnOddSubtotal(t *testing.T) {
	e := NewEngine(2000, "GBP")
	got := e.Compute([]Line{{UnitPrice: 333, Quantity: 1}})
	if got.VAT != 66 {
		t.Fatalf("vat: got %d, want 66", got.VAT)
	}
	if got.Total != 399 {
		t.Fatalf("total: got %d, want 399", got.Total)
	}
}
