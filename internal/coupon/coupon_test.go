package coupon

import (
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLookupCaseInsensitive(t *testing.T) {
	for _, code := range []string{"INDIRIM10", "indirim10", " Indirim10 "} {
		rule, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) not found", code)
		}
		if rule.Code != "INDIRIM10" {
			t.Fatalf("Lookup(%q) resolved %s", code, rule.Code)
		}
	}
	if _, ok := Lookup("BOGUS"); ok {
		t.Fatal("Lookup(BOGUS) should fail")
	}
}

func TestPercentageDiscount(t *testing.T) {
	rule, _ := Lookup("INDIRIM10")
	got := rule.DiscountFor(dec("200"))
	if !got.Equal(dec("20")) {
		t.Fatalf("discount = %s, want 20", got)
	}
}

func TestFixedDiscountCappedAtSubtotal(t *testing.T) {
	rule, _ := Lookup("INDIRIM50TL")
	if got := rule.DiscountFor(dec("200")); !got.Equal(dec("50")) {
		t.Fatalf("discount = %s, want 50", got)
	}
	if got := rule.DiscountFor(dec("30")); !got.Equal(dec("30")) {
		t.Fatalf("discount on small subtotal = %s, want 30", got)
	}
}

func TestApplyUnknownCode(t *testing.T) {
	cart := &domain.Cart{Totals: domain.Totals{Subtotal: dec("100")}}
	_, _, err := Apply(cart, "NOPE")
	if !errors.Is(err, domain.ErrInvalidCoupon) {
		t.Fatalf("err = %v, want ErrInvalidCoupon", err)
	}
	if len(cart.AppliedCoupons) != 0 {
		t.Fatalf("applied coupons = %v, want none", cart.AppliedCoupons)
	}
}

func TestApplyOverwritesNotStacks(t *testing.T) {
	cart := &domain.Cart{Totals: domain.Totals{Subtotal: dec("200")}}

	amount, typ, err := Apply(cart, "indirim10")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if typ != TypePercentage || !amount.Equal(dec("20")) {
		t.Fatalf("first apply = %s %s", amount, typ)
	}

	amount, typ, err = Apply(cart, "INDIRIM50TL")
	if err != nil {
		t.Fatalf("apply second: %v", err)
	}
	if typ != TypeFixed || !amount.Equal(dec("50")) {
		t.Fatalf("second apply = %s %s", amount, typ)
	}
	if !cart.Totals.Discount.Equal(dec("50")) {
		t.Fatalf("discount = %s, want 50 (overwritten, not 70)", cart.Totals.Discount)
	}
}

func TestApplyKeepsCodeSetSemantics(t *testing.T) {
	cart := &domain.Cart{Totals: domain.Totals{Subtotal: dec("200")}}
	if _, _, err := Apply(cart, "INDIRIM10"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, _, err := Apply(cart, "indirim10"); err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(cart.AppliedCoupons) != 1 || cart.AppliedCoupons[0] != "INDIRIM10" {
		t.Fatalf("applied coupons = %v, want [INDIRIM10]", cart.AppliedCoupons)
	}
}

func TestRemoveClearsEverything(t *testing.T) {
	cart := &domain.Cart{
		Totals:         domain.Totals{Subtotal: dec("200"), Discount: dec("20")},
		AppliedCoupons: []string{"INDIRIM10"},
	}
	Remove(cart)
	if !cart.Totals.Discount.IsZero() {
		t.Fatalf("discount = %s, want 0", cart.Totals.Discount)
	}
	if len(cart.AppliedCoupons) != 0 {
		t.Fatalf("applied coupons = %v, want none", cart.AppliedCoupons)
	}
}
