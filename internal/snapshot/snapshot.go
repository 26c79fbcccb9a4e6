// Package snapshot persists the full cart state across sessions. A snapshot
// is a single serialized record with a schema version tag so a future
// incompatible layout is detected and discarded instead of misinterpreted.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopkart/internal/cart"
	"github.com/xenking/shopkart/internal/domain/coupon"
)

// SchemaVersion tags the current snapshot layout. Bump on any incompatible
// change.
const SchemaVersion = 1

// ErrSchemaMismatch is returned when a stored payload carries an unknown
// schema version.
var ErrSchemaMismatch = errors.New("snapshot schema version mismatch")

// Line is the persisted form of one cart line.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Coupon is the persisted form of the applied coupon, rule included so the
// discount survives a restart even if the coupon table changes.
type Coupon struct {
	Code  string          `json:"code"`
	Type  string          `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Snapshot is the persisted form of the full cart state. Derived totals are
// not stored; they are recomputed on restore.
type Snapshot struct {
	SchemaVersion int       `json:"schema_version"`
	CartID        string    `json:"cart_id"`
	Version       uint64    `json:"version"`
	UpdatedAt     time.Time `json:"updated_at"`
	Lines         []Line    `json:"lines"`
	Coupon        *Coupon   `json:"coupon,omitempty"`
}

// Store is the durable-storage contract consumed by the cart engine.
// Load returns (nil, nil) when nothing was saved. Save stores the full
// snapshot, overwriting any previous one for the same cart.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// FromState converts a committed cart state into its persisted form.
func FromState(s cart.State) Snapshot {
	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		CartID:        s.ID,
		Version:       s.Version,
		UpdatedAt:     s.UpdatedAt,
		Lines:         make([]Line, len(s.Lines)),
	}
	for i, l := range s.Lines {
		snap.Lines[i] = Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			SKU:       l.SKU,
			Unit:      l.Unit,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	if s.Coupon != nil {
		snap.Coupon = &Coupon{
			Code:  s.Coupon.Code,
			Type:  string(s.Coupon.Rule.Type),
			Value: s.Coupon.Rule.Value,
		}
	}
	return snap
}

// State converts the snapshot back into a cart state. Totals are left zero;
// the store re-derives them on Restore.
func (s Snapshot) State() cart.State {
	state := cart.State{
		ID:        s.CartID,
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
		Lines:     make([]cart.Line, len(s.Lines)),
	}
	for i, l := range s.Lines {
		state.Lines[i] = cart.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			SKU:       l.SKU,
			Unit:      l.Unit,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	if s.Coupon != nil {
		state.Coupon = &cart.AppliedCoupon{
			Code: s.Coupon.Code,
			Rule: coupon.Rule{
				Code:  s.Coupon.Code,
				Type:  coupon.DiscountType(s.Coupon.Type),
				Value: s.Coupon.Value,
			},
		}
	}
	return state
}

// Encode serializes the snapshot.
func Encode(snap Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return b, nil
}

// Decode parses a stored payload, rejecting unknown schema versions.
func Decode(b []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, errors.Wrap(err, "unmarshal snapshot")
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, errors.Wrapf(ErrSchemaMismatch, "stored version %d", snap.SchemaVersion)
	}
	return &snap, nil
}
