package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shopkart/internal/domain/order"
)

const insertOrderSQL = `INSERT INTO orders
	(id, cart_id, lines, item_count, subtotal, discount, tax, shipping, total, coupon_code, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are stored as a JSONB document alongside the denormalized totals.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a placed order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.CartID, lines, o.ItemCount,
		o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total,
		o.CouponCode, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}
