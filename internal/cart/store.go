package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/domain/product"
	"github.com/xenking/shopkart/internal/pricing"
)

// ErrInvalidQuantity is returned when a non-positive quantity is passed to
// AddItem. The cart state is left unchanged.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Saver receives every committed state for asynchronous persistence.
// Enqueue must not block; a failed write never rolls back the in-memory
// state.
type Saver interface {
	Enqueue(state State)
}

// Store owns the authoritative cart state and applies transitions to it.
// All operations are serialized behind one mutex (single logical writer);
// every mutation recomputes the derived totals, commits a new immutable
// State, and hands it to the Saver.
type Store struct {
	calc    *pricing.Calculator
	coupons coupon.Resolver
	saver   Saver
	lg      *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
}

// Option configures a Store.
type Option func(*Store)

// WithSaver sets the asynchronous persistence sink.
func WithSaver(s Saver) Option {
	return func(st *Store) { st.saver = s }
}

// WithLogger sets the store logger.
func WithLogger(lg *zap.Logger) Option {
	return func(st *Store) { st.lg = lg }
}

// WithCartID fixes the cart identity instead of generating one.
func WithCartID(id string) Option {
	return func(st *Store) { st.state.ID = id }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// NewStore creates a Store starting from the empty initial state.
func NewStore(calc *pricing.Calculator, coupons coupon.Resolver, opts ...Option) *Store {
	s := &Store{
		calc:    calc,
		coupons: coupons,
		lg:      zap.NewNop(),
		now:     time.Now,
	}
	s.state.ID = uuid.NewString()
	for _, opt := range opts {
		opt(s)
	}
	s.state = emptyState(s.state.ID, calc)
	return s
}

// State returns the current cart state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddItem adds quantity units of the product to the cart, merging into an
// existing line when one exists. The product's effective price is
// snapshotted at the time of addition.
func (s *Store) AddItem(p product.Product, quantity int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		return s.state, errors.Wrapf(ErrInvalidQuantity, "product %s", p.ID)
	}
	return s.commit(AddItem{Product: p, Quantity: quantity}), nil
}

// RemoveItem deletes the line for productID. Removing an absent line is a
// no-op, not an error.
func (s *Store) RemoveItem(productID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(RemoveItem{ProductID: productID})
}

// SetQuantity replaces the line's quantity outright; zero or less removes
// the line. Setting an absent line is a no-op.
func (s *Store) SetQuantity(productID string, quantity int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(SetQuantity{ProductID: productID, Quantity: quantity})
}

// ApplyCoupon resolves the code and applies the resulting rule, replacing
// any previously applied coupon. On resolution failure the state is
// unchanged and the error is returned for the caller to surface.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (State, error) {
	rule, err := s.coupons.Resolve(ctx, code)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.state, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ApplyCoupon{Rule: *rule}), nil
}

// RemoveCoupon detaches the applied coupon, if any.
func (s *Store) RemoveCoupon() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(RemoveCoupon{})
}

// Clear resets the cart to the empty initial state. The checkout consumer
// calls this exactly once after a successful order submission.
func (s *Store) Clear() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(Clear{})
}

// Restore replaces the state wholesale from a previously persisted
// snapshot. Totals are re-derived and the version continues from the
// restored state so subsequent saves stay ordered.
func (s *Store) Restore(state State) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := apply(s.state, Replace{State: state}, s.calc)
	next.Version = state.Version + 1
	next.UpdatedAt = s.now()
	s.state = next
	s.lg.Debug("cart restored",
		zap.String("cart_id", next.ID),
		zap.Int("lines", len(next.Lines)),
		zap.Uint64("version", next.Version),
	)
	return next
}

// commit applies cmd, stamps version and time, stores the new state, and
// enqueues it for persistence. Callers must hold s.mu.
func (s *Store) commit(cmd Command) State {
	next := apply(s.state, cmd, s.calc)
	next.Version = s.state.Version + 1
	next.UpdatedAt = s.now()
	s.state = next

	if s.saver != nil {
		s.saver.Enqueue(next)
	}
	return next
}
