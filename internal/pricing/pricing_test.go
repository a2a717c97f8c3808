package pricing

import (
	"testing"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(price string, qty int) domain.CartItem {
	return domain.CartItem{UnitPrice: dec(price), Quantity: qty}
}

func TestLineTotalRounds(t *testing.T) {
	got := LineTotal(dec("33.333"), 3)
	if !got.Equal(dec("100.00")) {
		t.Fatalf("line total = %s, want 100.00", got)
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	items := []domain.CartItem{item("100", 2), item("49.90", 1)}
	got := Subtotal(items)
	if !got.Equal(dec("249.90")) {
		t.Fatalf("subtotal = %s, want 249.90", got)
	}
}

func TestShippingThreshold(t *testing.T) {
	tests := []struct {
		subtotal string
		want     string
	}{
		{"499.99", "29.99"},
		{"500", "0"},
		{"500.01", "0"},
		{"0.01", "29.99"},
	}
	for _, tt := range tests {
		got := Shipping(dec(tt.subtotal))
		if !got.Equal(dec(tt.want)) {
			t.Fatalf("shipping(%s) = %s, want %s", tt.subtotal, got, tt.want)
		}
	}
}

func TestComputeWorkedExample(t *testing.T) {
	// Two units at 100: subtotal 200, tax 36, shipping 29.99.
	items := []domain.CartItem{item("100", 2)}

	totals := Compute(items, decimal.Zero)
	if !totals.Subtotal.Equal(dec("200")) {
		t.Fatalf("subtotal = %s, want 200", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("36")) {
		t.Fatalf("tax = %s, want 36", totals.Tax)
	}
	if !totals.Shipping.Equal(dec("29.99")) {
		t.Fatalf("shipping = %s, want 29.99", totals.Shipping)
	}
	if !totals.Total.Equal(dec("265.99")) {
		t.Fatalf("total = %s, want 265.99", totals.Total)
	}

	// 10% of subtotal.
	withPct := Compute(items, PercentageDiscount(totals.Subtotal, dec("10")))
	if !withPct.Total.Equal(dec("245.99")) {
		t.Fatalf("total with 10%% discount = %s, want 245.99", withPct.Total)
	}

	// Fixed 50.
	withFixed := Compute(items, dec("50"))
	if !withFixed.Total.Equal(dec("215.99")) {
		t.Fatalf("total with fixed 50 = %s, want 215.99", withFixed.Total)
	}
}

func TestComputeEmptyCartOwesNothing(t *testing.T) {
	totals := Compute(nil, decimal.Zero)
	if !totals.Total.IsZero() || !totals.Shipping.IsZero() || !totals.Tax.IsZero() {
		t.Fatalf("empty cart totals = %+v, want all zero", totals)
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	items := []domain.CartItem{item("10", 1)}
	totals := Compute(items, dec("10000"))
	if !totals.Total.IsZero() {
		t.Fatalf("total = %s, want 0", totals.Total)
	}
	gross := totals.Subtotal.Add(totals.Tax).Add(totals.Shipping)
	if !totals.Discount.Equal(gross) {
		t.Fatalf("discount = %s, want clamped to %s", totals.Discount, gross)
	}
}

func TestComputeIgnoresNegativeDiscount(t *testing.T) {
	items := []domain.CartItem{item("100", 1)}
	totals := Compute(items, dec("-5"))
	if !totals.Discount.IsZero() {
		t.Fatalf("discount = %s, want 0", totals.Discount)
	}
}

func TestComputeInvariant(t *testing.T) {
	tests := []struct {
		name     string
		items    []domain.CartItem
		discount string
	}{
		{"no discount", []domain.CartItem{item("100", 2)}, "0"},
		{"partial discount", []domain.CartItem{item("650", 1), item("39.90", 3)}, "50"},
		{"oversized discount", []domain.CartItem{item("1", 1)}, "999"},
		{"fractional prices", []domain.CartItem{item("0.33", 7), item("19.99", 13)}, "12.34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := Compute(tt.items, dec(tt.discount))
			want := totals.Subtotal.Add(totals.Tax).Add(totals.Shipping).Sub(totals.Discount)
			if !totals.Total.Equal(want) {
				t.Fatalf("total = %s, want subtotal+tax+shipping-discount = %s", totals.Total, want)
			}
			if totals.Total.IsNegative() {
				t.Fatalf("total went negative: %s", totals.Total)
			}
		})
	}
}

func TestRepriceReconcilesLineTotals(t *testing.T) {
	cart := &domain.Cart{
		Items: []domain.CartItem{
			{UnitPrice: dec("100"), Quantity: 2, Total: dec("1")},
		},
		Totals: domain.Totals{Discount: dec("20")},
	}
	Reprice(cart)
	if !cart.Items[0].Total.Equal(dec("200")) {
		t.Fatalf("line total = %s, want 200", cart.Items[0].Total)
	}
	if !cart.Totals.Total.Equal(dec("245.99")) {
		t.Fatalf("cart total = %s, want 245.99", cart.Totals.Total)
	}
}
