// Package pricing derives the cart's price breakdown. The calculator is a
// pure function over the cart lines and the applied coupon; the store calls
// it after every transition.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/shopkart/internal/domain/coupon"
)

// Line is the minimal view of a cart line the calculator needs.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns the line total (unit price x quantity).
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the derived price breakdown for a cart.
type Totals struct {
	ItemCount  int
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	GrandTotal decimal.Decimal
}

// Calculator computes cart totals under a fixed Policy.
type Calculator struct {
	policy Policy
}

// NewCalculator returns a Calculator for the given policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the calculator's policy.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// Calculate derives the full price breakdown for the given lines and the
// optionally applied coupon rule (nil when no coupon is active).
//
// The grand total is subtotal - discount + tax + shipping, floored at zero.
// All monetary outputs are rounded to 2 decimal places.
func (c *Calculator) Calculate(lines []Line, rule *coupon.Rule) Totals {
	t := Totals{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
	}

	for _, l := range lines {
		t.ItemCount += l.Quantity
		t.Subtotal = t.Subtotal.Add(l.Total())
	}
	t.Subtotal = t.Subtotal.Round(2)

	t.Discount = c.discount(t.Subtotal, rule)

	if c.policy.TaxRate.IsPositive() {
		t.Tax = t.Subtotal.Sub(t.Discount).Mul(c.policy.TaxRate).Round(2)
		if t.Tax.IsNegative() {
			t.Tax = decimal.Zero
		}
	}

	t.Shipping = c.shipping(t.Subtotal)

	total := t.Subtotal.Sub(t.Discount).Add(t.Tax).Add(t.Shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.GrandTotal = total.Round(2)

	return t
}

// discount resolves the coupon and automatic volume discounts. An applied
// coupon overrides the automatic discount unless the policy stacks them.
// The combined discount never exceeds the subtotal.
func (c *Calculator) discount(subtotal decimal.Decimal, rule *coupon.Rule) decimal.Decimal {
	auto := decimal.Zero
	if c.policy.AutoDiscountRate.IsPositive() &&
		c.policy.AutoDiscountThreshold.IsPositive() &&
		subtotal.GreaterThan(c.policy.AutoDiscountThreshold) {
		auto = subtotal.Mul(c.policy.AutoDiscountRate).Round(2)
	}

	if rule == nil {
		return auto
	}

	applied := rule.Amount(subtotal)
	if c.policy.StackDiscounts {
		applied = applied.Add(auto)
	}
	return decimal.Min(applied, subtotal)
}

// shipping returns the flat fee, waived when the subtotal exceeds the
// free-shipping threshold. An empty cart still carries the baseline fee.
func (c *Calculator) shipping(subtotal decimal.Decimal) decimal.Decimal {
	if c.policy.FreeShippingThreshold.IsPositive() &&
		subtotal.GreaterThan(c.policy.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.policy.FlatShippingFee.Round(2)
}
