package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shopkart/internal/cart"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// Service turns a cart state into a persisted order. It reads the cart's
// derived totals as-is; the caller clears the cart exactly once after a
// successful placement.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service backed by the given repository.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// PlaceOrder snapshots the cart state into an Order and persists it.
func (s *Service) PlaceOrder(ctx context.Context, state cart.State) (*Order, error) {
	if state.Empty() {
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:        uuid.NewString(),
		CartID:    state.ID,
		Lines:     make([]Line, len(state.Lines)),
		ItemCount: state.ItemCount,
		Subtotal:  state.Subtotal,
		Discount:  state.Discount,
		Tax:       state.Tax,
		Shipping:  state.Shipping,
		Total:     state.GrandTotal,
		CreatedAt: s.now(),
	}
	for i, l := range state.Lines {
		o.Lines[i] = Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	if state.Coupon != nil {
		o.CouponCode = state.Coupon.Code
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}
