package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shopkart/internal/domain/coupon"
	"github.com/xenking/shopkart/internal/domain/product"
	"github.com/xenking/shopkart/internal/pricing"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func eq(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func testProduct(id, price string) product.Product {
	return product.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: d(price),
		Unit:  "pcs",
		SKU:   "SKU-" + id,
	}
}

// recordingSaver captures every committed state in order.
type recordingSaver struct {
	states []State
}

func (r *recordingSaver) Enqueue(s State) {
	r.states = append(r.states, s)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	calc := pricing.NewCalculator(pricing.DefaultPolicy())
	resolver := coupon.NewTableResolver(coupon.DefaultRules())
	return NewStore(calc, resolver, opts...)
}

// checkInvariants asserts the derived-field invariants that must hold for
// every reachable state.
func checkInvariants(t *testing.T, s State) {
	t.Helper()

	count := 0
	subtotal := decimal.Zero
	for _, l := range s.Lines {
		assert.Positive(t, l.Quantity, "line %s quantity", l.ProductID)
		eq(t, l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2).String(),
			l.LineTotal, "line total "+l.ProductID)
		count += l.Quantity
		subtotal = subtotal.Add(l.LineTotal)
	}
	assert.Equal(t, count, s.ItemCount, "item count")
	eq(t, subtotal.Round(2).String(), s.Subtotal, "subtotal")

	want := s.Subtotal.Sub(s.Discount).Add(s.Tax).Add(s.Shipping)
	if want.IsNegative() {
		want = decimal.Zero
	}
	eq(t, want.Round(2).String(), s.GrandTotal, "grand total")
	assert.False(t, s.GrandTotal.IsNegative(), "grand total never negative")
}

func TestNewStoreStartsEmpty(t *testing.T) {
	store := newTestStore(t)
	s := store.State()

	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.ItemCount)
	assert.NotEmpty(t, s.ID)
	assert.Nil(t, s.Coupon)
	checkInvariants(t, s)
}

func TestAddItemMergesQuantity(t *testing.T) {
	store := newTestStore(t)
	p := testProduct("p1", "12.50")

	_, err := store.AddItem(p, 2)
	require.NoError(t, err)
	s, err := store.AddItem(p, 3)
	require.NoError(t, err)

	require.Len(t, s.Lines, 1)
	assert.Equal(t, 5, s.Lines[0].Quantity)
	assert.Equal(t, 5, s.ItemCount)
	eq(t, "62.50", s.Subtotal, "subtotal")
	checkInvariants(t, s)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	store := newTestStore(t)
	before := store.State()

	for _, qty := range []int{0, -1} {
		s, err := store.AddItem(testProduct("p1", "10"), qty)
		require.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, before.Version, s.Version, "state unchanged on rejection")
		assert.True(t, s.Empty())
	}
}

func TestAddItemSnapshotsEffectivePrice(t *testing.T) {
	store := newTestStore(t)
	p := testProduct("p1", "100")
	p.DiscountRate = d("0.25")

	s, err := store.AddItem(p, 1)
	require.NoError(t, err)

	eq(t, "75.00", s.Lines[0].UnitPrice, "unit price reflects product discount")

	// A later catalog price change must not affect the existing line.
	p.Price = d("500")
	s, err = store.AddItem(p, 1)
	require.NoError(t, err)
	eq(t, "75.00", s.Lines[0].UnitPrice, "unit price is a snapshot")
	assert.Equal(t, 2, s.Lines[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "10"), 1)
	require.NoError(t, err)
	_, err = store.AddItem(testProduct("p2", "20"), 2)
	require.NoError(t, err)

	s := store.RemoveItem("p1")
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "p2", s.Lines[0].ProductID)
	checkInvariants(t, s)

	// Removing an absent product is a benign no-op.
	s = store.RemoveItem("ghost")
	require.Len(t, s.Lines, 1)
	checkInvariants(t, s)
}

func TestSetQuantity(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "10"), 4)
	require.NoError(t, err)

	s := store.SetQuantity("p1", 2)
	assert.Equal(t, 2, s.Lines[0].Quantity)
	assert.Equal(t, 2, s.ItemCount)
	checkInvariants(t, s)

	// Absolute set, not a delta: repeating it is idempotent.
	again := store.SetQuantity("p1", 2)
	assert.Equal(t, s.Lines, again.Lines)
	assert.Equal(t, s.ItemCount, again.ItemCount)
	eq(t, s.GrandTotal.String(), again.GrandTotal, "grand total")
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "10"), 3)
	require.NoError(t, err)

	s := store.SetQuantity("p1", 0)
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.ItemCount)
	checkInvariants(t, s)

	s = store.SetQuantity("p1", -2)
	assert.True(t, s.Empty())
}

func TestSetQuantityAbsentLineIsNoop(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "10"), 1)
	require.NoError(t, err)

	s := store.SetQuantity("ghost", 5)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 1, s.ItemCount)
	checkInvariants(t, s)
}

func TestApplyCoupon(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "25"), 2)
	require.NoError(t, err)

	s, err := store.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, s.Coupon)
	assert.Equal(t, "SAVE10", s.Coupon.Code)
	eq(t, "5.00", s.Discount, "10% of 50")
	checkInvariants(t, s)
}

func TestApplyCouponUnknownCodeLeavesStateUnchanged(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "25"), 2)
	require.NoError(t, err)
	before := store.State()

	s, err := store.ApplyCoupon(context.Background(), "UNKNOWN")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Equal(t, before.Version, s.Version)
	assert.Nil(t, s.Coupon)
	eq(t, before.GrandTotal.String(), s.GrandTotal, "grand total unchanged")
}

func TestApplyCouponReplacesPrevious(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "50"), 1)
	require.NoError(t, err)

	_, err = store.ApplyCoupon(context.Background(), "SAVE5")
	require.NoError(t, err)
	s, err := store.ApplyCoupon(context.Background(), "WELCOME")
	require.NoError(t, err)

	require.NotNil(t, s.Coupon)
	assert.Equal(t, "WELCOME", s.Coupon.Code)
	eq(t, "7.50", s.Discount, "15% of 50 replaces 5%")
	checkInvariants(t, s)
}

func TestRemoveCoupon(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "50"), 1)
	require.NoError(t, err)
	_, err = store.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	s := store.RemoveCoupon()
	assert.Nil(t, s.Coupon)
	eq(t, "0", s.Discount, "discount cleared")
	checkInvariants(t, s)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AddItem(testProduct("p1", "25"), 2)
	require.NoError(t, err)
	_, err = store.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	s := store.Clear()
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.ItemCount)
	eq(t, "0", s.Subtotal, "subtotal")
	eq(t, "0", s.Discount, "discount")
	assert.Nil(t, s.Coupon)
	// Baseline shipping still applies to the empty cart.
	eq(t, "10.00", s.Shipping, "shipping")
	checkInvariants(t, s)
}

func TestRestoreRecomputesTotals(t *testing.T) {
	store := newTestStore(t)

	// A snapshot with stale or tampered totals and a dead line.
	loaded := State{
		ID: "cart-42",
		Lines: []Line{
			{ProductID: "p1", UnitPrice: d("10"), Quantity: 2, LineTotal: d("999")},
			{ProductID: "p2", UnitPrice: d("5"), Quantity: 0},
		},
		Subtotal:   d("999"),
		GrandTotal: d("999"),
		Version:    7,
	}

	s := store.Restore(loaded)
	assert.Equal(t, "cart-42", s.ID)
	require.Len(t, s.Lines, 1, "zero-quantity line dropped")
	eq(t, "20.00", s.Subtotal, "subtotal re-derived")
	assert.Equal(t, uint64(8), s.Version, "version continues from snapshot")
	checkInvariants(t, s)
}

func TestSaverReceivesEveryCommitInOrder(t *testing.T) {
	saver := &recordingSaver{}
	store := newTestStore(t, WithSaver(saver))

	_, err := store.AddItem(testProduct("p1", "10"), 1)
	require.NoError(t, err)
	store.SetQuantity("p1", 3)
	store.RemoveItem("p1")

	require.Len(t, saver.states, 3)
	for i := 1; i < len(saver.states); i++ {
		assert.Equal(t, saver.states[i-1].Version+1, saver.states[i].Version)
	}
}

func TestRejectedOperationsDoNotReachSaver(t *testing.T) {
	saver := &recordingSaver{}
	store := newTestStore(t, WithSaver(saver))

	_, err := store.AddItem(testProduct("p1", "10"), 0)
	require.Error(t, err)
	_, err = store.ApplyCoupon(context.Background(), "NOPE")
	require.Error(t, err)

	assert.Empty(t, saver.states)
}

func TestOperationSequencesKeepInvariants(t *testing.T) {
	store := newTestStore(t, WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))

	steps := []func() State{
		func() State { s, _ := store.AddItem(testProduct("a", "9.99"), 3); return s },
		func() State { s, _ := store.AddItem(testProduct("b", "42.50"), 1); return s },
		func() State { return store.SetQuantity("a", 10) },
		func() State { s, _ := store.ApplyCoupon(context.Background(), "WELCOME"); return s },
		func() State { return store.RemoveItem("b") },
		func() State { return store.SetQuantity("a", 0) },
		func() State { s, _ := store.AddItem(testProduct("c", "150"), 2); return s },
		func() State { return store.Clear() },
	}

	for i, step := range steps {
		s := step()
		checkInvariants(t, s)
		assert.Equal(t, uint64(i+1), s.Version)
	}
}
