package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrInvalidCoupon is returned when a coupon code is not recognized.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Rule defines a coupon's discount behaviour. Value is a percentage of the
// subtotal for DiscountPercentage, or a monetary amount for DiscountFixed.
type Rule struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	Description string
}

// Amount computes the discount the rule yields against the given subtotal.
// Fixed discounts are capped at the subtotal; the result is never negative
// and is rounded to 2 decimal places.
func (r Rule) Amount(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch r.Type {
	case DiscountFixed:
		amount = decimal.Min(r.Value, subtotal)
	case DiscountPercentage:
		amount = subtotal.Mul(r.Value).Div(hundred)
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

var hundred = decimal.NewFromInt(100)

// Resolver resolves a coupon code to its discount rule. Lookup is
// case-insensitive. An API-backed resolver is a drop-in replacement for the
// local table behind this same contract.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*Rule, error)
}
