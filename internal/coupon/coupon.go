// Package coupon validates discount codes against a fixed rule table and
// applies the resulting discount to a cart.
package coupon

import (
	"strings"

	"storefront/internal/domain"
	"storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	TypePercentage DiscountType = "percentage"
	TypeFixed      DiscountType = "fixed"
)

// Rule maps a code to its discount semantics.
type Rule struct {
	Code  string
	Type  DiscountType
	Value decimal.Decimal
}

var rules = map[string]Rule{
	"INDIRIM10":   {Code: "INDIRIM10", Type: TypePercentage, Value: decimal.RequireFromString("10")},
	"INDIRIM50TL": {Code: "INDIRIM50TL", Type: TypeFixed, Value: decimal.RequireFromString("50")},
}

// Lookup resolves a code case-insensitively.
func Lookup(code string) (Rule, bool) {
	r, ok := rules[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// DiscountFor computes the discount amount this rule grants on a subtotal.
// Fixed discounts never exceed the subtotal.
func (r Rule) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch r.Type {
	case TypePercentage:
		return pricing.PercentageDiscount(subtotal, r.Value)
	case TypeFixed:
		if r.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return r.Value
	}
	return decimal.Zero
}

// Apply validates the code and sets the cart's discount. A second coupon
// overwrites the stored discount rather than stacking; the code list keeps
// set semantics on the uppercased code. The caller persists the cart, which
// re-runs pricing.
func Apply(cart *domain.Cart, code string) (decimal.Decimal, DiscountType, error) {
	rule, ok := Lookup(code)
	if !ok {
		return decimal.Zero, "", domain.ErrInvalidCoupon
	}

	amount := rule.DiscountFor(cart.Totals.Subtotal)
	cart.Totals.Discount = amount

	present := false
	for _, c := range cart.AppliedCoupons {
		if c == rule.Code {
			present = true
			break
		}
	}
	if !present {
		cart.AppliedCoupons = append(cart.AppliedCoupons, rule.Code)
	}
	return amount, rule.Type, nil
}

// Remove resets the discount and clears all applied codes.
func Remove(cart *domain.Cart) {
	cart.Totals.Discount = decimal.Zero
	cart.AppliedCoupons = nil
}
