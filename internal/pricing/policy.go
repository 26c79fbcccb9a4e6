package pricing

import "github.com/shopspring/decimal"

// Policy holds every pricing constant as configuration. Thresholds, rates
// and fees vary per deployment, so none of them are hard-coded in the
// calculator.
type Policy struct {
	// FlatShippingFee is charged on every order unless waived.
	FlatShippingFee decimal.Decimal
	// FreeShippingThreshold waives shipping when the subtotal exceeds it.
	// Zero disables the waiver.
	FreeShippingThreshold decimal.Decimal
	// AutoDiscountRate is a fractional volume discount in [0, 1) applied
	// when the subtotal exceeds AutoDiscountThreshold.
	AutoDiscountRate      decimal.Decimal
	AutoDiscountThreshold decimal.Decimal
	// TaxRate is a fractional rate applied to the discounted subtotal.
	// Zero disables the tax line.
	TaxRate decimal.Decimal
	// StackDiscounts adds the automatic volume discount on top of an
	// applied coupon. When false (the default), an applied coupon
	// overrides the automatic discount.
	StackDiscounts bool
}

// DefaultPolicy mirrors the storefront defaults: flat $10 shipping waived
// over $100, 5% volume discount over $150, no tax line.
func DefaultPolicy() Policy {
	return Policy{
		FlatShippingFee:       decimal.NewFromInt(10),
		FreeShippingThreshold: decimal.NewFromInt(100),
		AutoDiscountRate:      decimal.RequireFromString("0.05"),
		AutoDiscountThreshold: decimal.NewFromInt(150),
		TaxRate:               decimal.Zero,
	}
}
