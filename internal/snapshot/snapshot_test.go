package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/coupon"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleState() cart.State {
	return cart.State{
		ID:      "cart-1",
		Version: 3,
		Lines: []cart.Line{
			{ProductID: "p1", Name: "Widget", SKU: "W-1", Unit: "pcs", UnitPrice: d("9.99"), Quantity: 2},
			{ProductID: "p2", Name: "Gadget", UnitPrice: d("42.50"), Quantity: 1},
		},
		Coupon: &cart.AppliedCoupon{
			Code: "SAVE10",
			Rule: coupon.Rule{Code: "SAVE10", Type: coupon.DiscountPercentage, Value: d("10")},
		},
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	snap := FromState(sampleState())
	assert.Equal(t, SchemaVersion, snap.SchemaVersion)

	b, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, snap, *decoded)

	restored := decoded.State()
	assert.Equal(t, "cart-1", restored.ID)
	assert.Equal(t, uint64(3), restored.Version)
	require.Len(t, restored.Lines, 2)
	assert.True(t, d("9.99").Equal(restored.Lines[0].UnitPrice))
	require.NotNil(t, restored.Coupon)
	assert.Equal(t, coupon.DiscountPercentage, restored.Coupon.Rule.Type)
}

func TestDecodeRejectsUnknownSchema(t *testing.T) {
	_, err := Decode([]byte(`{"schema_version":99,"cart_id":"x"}`))
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "cart.json"), zap.NewNop())

	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFileStoreLoadCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	fs := NewFileStore(path, zap.NewNop())
	snap, err := fs.Load(context.Background())
	require.NoError(t, err, "corrupt payload is logged, not propagated")
	assert.Nil(t, snap)
}

func TestFileStoreLoadOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":0}`), 0o600))

	fs := NewFileStore(path, zap.NewNop())
	snap, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "incompatible layout discarded, not misinterpreted")
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	fs := NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	want := FromState(sampleState())
	require.NoError(t, fs.Save(ctx, want))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	fs := NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	first := FromState(sampleState())
	require.NoError(t, fs.Save(ctx, first))

	state := sampleState()
	state.Version = 4
	state.Lines = state.Lines[:1]
	second := FromState(state)
	require.NoError(t, fs.Save(ctx, second))

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.Version)
	assert.Len(t, got.Lines, 1)
}

// slowStore records saves in order, optionally blocking until released.
type slowStore struct {
	mu    sync.Mutex
	saved []Snapshot
	gate  chan struct{}
}

func (s *slowStore) Load(context.Context) (*Snapshot, error) { return nil, nil }

func (s *slowStore) Save(_ context.Context, snap Snapshot) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	return nil
}

func (s *slowStore) versions() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.saved))
	for i, snap := range s.saved {
		out[i] = snap.Version
	}
	return out
}

func TestSaverCoalescesToLatest(t *testing.T) {
	store := &slowStore{}
	saver := NewSaver(store, zap.NewNop())

	for v := uint64(1); v <= 5; v++ {
		state := sampleState()
		state.Version = v
		saver.Enqueue(state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Run flushes the pending snapshot and exits.
	require.NoError(t, saver.Run(ctx))

	versions := store.versions()
	require.NotEmpty(t, versions)
	assert.Equal(t, uint64(5), versions[len(versions)-1], "latest version wins")
}

func TestSaverDropsStaleState(t *testing.T) {
	store := &slowStore{}
	saver := NewSaver(store, zap.NewNop())

	newer := sampleState()
	newer.Version = 9
	saver.Enqueue(newer)

	older := sampleState()
	older.Version = 2
	saver.Enqueue(older)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, saver.Run(ctx))

	versions := store.versions()
	require.Len(t, versions, 1)
	assert.Equal(t, uint64(9), versions[0])
}

func TestSaverWritesAreMonotonic(t *testing.T) {
	store := &slowStore{}
	saver := NewSaver(store, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = saver.Run(ctx)
	}()

	for v := uint64(1); v <= 50; v++ {
		state := sampleState()
		state.Version = v
		saver.Enqueue(state)
	}

	// Let the worker make progress before shutting down.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	versions := store.versions()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1], "saves ordered by version")
	}
	assert.Equal(t, uint64(50), versions[len(versions)-1])
}
