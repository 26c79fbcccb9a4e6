package coupon

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// TableResolver implements Resolver with an in-memory table of rules keyed
// by upper-cased code. Lookup is synchronous and never blocks.
type TableResolver struct {
	rules map[string]Rule
}

var _ Resolver = (*TableResolver)(nil)

// NewTableResolver builds a TableResolver from the given rules. Codes are
// normalized to upper case; a later rule with the same code wins.
func NewTableResolver(rules []Rule) *TableResolver {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[strings.ToUpper(r.Code)] = r
	}
	return &TableResolver{rules: m}
}

// Resolve returns the rule for the given code, or ErrInvalidCoupon when the
// code is not in the table.
func (t *TableResolver) Resolve(_ context.Context, code string) (*Rule, error) {
	r, ok := t.rules[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrInvalidCoupon
	}
	return &r, nil
}

// DefaultRules returns the built-in coupon table used when no table is
// configured.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "SAVE5", Type: DiscountPercentage, Value: decimal.NewFromInt(5), Description: "5% off your order"},
		{Code: "SAVE10", Type: DiscountPercentage, Value: decimal.NewFromInt(10), Description: "10% off your order"},
		{Code: "WELCOME", Type: DiscountPercentage, Value: decimal.NewFromInt(15), Description: "Welcome: 15% off"},
		{Code: "OVER9000", Type: DiscountFixed, Value: decimal.NewFromInt(9), Description: "$9 off your order"},
	}
}
