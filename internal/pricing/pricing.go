// Package pricing recomputes a cart's monetary totals from its line items.
// It is pure: no I/O, deterministic for a given item list and discount.
package pricing

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	taxRate               = decimal.RequireFromString("0.18")
	freeShippingThreshold = decimal.RequireFromString("500")
	shippingFee           = decimal.RequireFromString("29.99")
	hundred               = decimal.RequireFromString("100")
)

// LineTotal is round(unitPrice * quantity, 2).
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Subtotal sums the line totals of the given items.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for i := range items {
		sum = sum.Add(LineTotal(items[i].UnitPrice, items[i].Quantity))
	}
	return sum
}

// Tax is round(subtotal * 0.18, 2).
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Round(2)
}

// Shipping is free from 500 upward, 29.99 below.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		return decimal.Zero
	}
	return shippingFee
}

// PercentageDiscount is round(subtotal * percent/100, 2).
func PercentageDiscount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred).Round(2)
}

// Compute derives the full totals for the given items and discount. The
// discount is clamped so the total can never go negative.
func Compute(items []domain.CartItem, discount decimal.Decimal) domain.Totals {
	if len(items) == 0 {
		// An empty cart owes nothing; the shipping fee applies to orders,
		// not to the absence of one.
		return domain.ZeroTotals()
	}
	subtotal := Subtotal(items)
	tax := Tax(subtotal)
	shipping := Shipping(subtotal)

	gross := subtotal.Add(tax).Add(shipping)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return domain.Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    gross.Sub(discount),
	}
}

// Reprice reconciles each line's total with its snapshot price and quantity,
// then recomputes the cart totals. Every cart write path runs this before
// persisting.
func Reprice(cart *domain.Cart) {
	for i := range cart.Items {
		cart.Items[i].Total = LineTotal(cart.Items[i].UnitPrice, cart.Items[i].Quantity)
	}
	cart.Totals = Compute(cart.Items, cart.Totals.Discount)
}
