package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

var one = decimal.NewFromInt(1)

// Product represents a catalog item available for purchase.
// Price is the base unit price; DiscountRate is an optional per-product
// fractional discount in [0, 1).
type Product struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	DiscountRate decimal.Decimal
	Unit         string
	SKU          string
	ImageURL     string
}

// EffectivePrice returns the unit price after the product's own discount
// rate, rounded to 2 decimal places. The cart snapshots this value when a
// line is created; later catalog changes do not affect existing lines.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountRate.IsZero() {
		return p.Price.Round(2)
	}
	return p.Price.Mul(one.Sub(p.DiscountRate)).Round(2)
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
