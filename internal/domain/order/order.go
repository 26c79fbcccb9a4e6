package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order captures the cart's lines and price breakdown at the moment of a
// successful checkout submission.
type Order struct {
	ID         string
	CartID     string
	Lines      []Line
	ItemCount  int
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	CreatedAt  time.Time
}

// Line is a single purchased line item.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
