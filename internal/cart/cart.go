// Package cart implements the cart state engine: an immutable cart state,
// a tagged command set with a single transition function, and a Store that
// serializes transitions for one logical writer.
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/pricing"
)

// Line is one product-and-quantity entry in the cart. UnitPrice is a
// snapshot of the product's effective price at the time the line was
// created; later catalog changes do not touch it. Quantity is strictly
// positive while the line exists.
type Line struct {
	ProductID string
	Name      string
	SKU       string
	Unit      string
	ImageURL  string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// AppliedCoupon records the coupon currently applied to the cart together
// with the resolved rule it was validated against.
type AppliedCoupon struct {
	Code string
	Rule coupon.Rule
}

// State is the full cart state. States are immutable: every transition
// produces a new value, so concurrent readers always observe a consistent
// snapshot. Version increases with every committed transition and orders
// persistence writes.
type State struct {
	ID         string
	Lines      []Line
	Coupon     *AppliedCoupon
	ItemCount  int
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	GrandTotal decimal.Decimal
	Version    uint64
	UpdatedAt  time.Time
}

// Empty returns whether the cart holds no lines.
func (s State) Empty() bool {
	return len(s.Lines) == 0
}

// FindLine returns the line for the given product ID, or nil.
func (s State) FindLine(productID string) *Line {
	for i := range s.Lines {
		if s.Lines[i].ProductID == productID {
			return &s.Lines[i]
		}
	}
	return nil
}

// emptyState returns the initial state for the given cart ID with totals
// derived for zero lines (baseline shipping included).
func emptyState(id string, calc *pricing.Calculator) State {
	s := State{ID: id}
	return recompute(s, calc)
}

// recompute re-derives every total on s from its lines and coupon.
func recompute(s State, calc *pricing.Calculator) State {
	lines := make([]pricing.Line, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}

	var rule *coupon.Rule
	if s.Coupon != nil {
		r := s.Coupon.Rule
		rule = &r
	}

	t := calc.Calculate(lines, rule)
	s.ItemCount = t.ItemCount
	s.Subtotal = t.Subtotal
	s.Discount = t.Discount
	s.Tax = t.Tax
	s.Shipping = t.Shipping
	s.GrandTotal = t.GrandTotal

	for i := range s.Lines {
		s.Lines[i].LineTotal = s.Lines[i].UnitPrice.
			Mul(decimal.NewFromInt(int64(s.Lines[i].Quantity))).Round(2)
	}
	return s
}

// cloneLines copies the line slice so the previous state stays untouched.
func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
