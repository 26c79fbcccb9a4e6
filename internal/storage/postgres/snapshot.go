package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/snapshot"
)

const (
	upsertSnapshotSQL = `INSERT INTO cart_snapshots (cart_id, version, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id) DO UPDATE
		SET version = EXCLUDED.version,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
		WHERE cart_snapshots.version < EXCLUDED.version`

	getSnapshotSQL = `SELECT payload FROM cart_snapshots WHERE cart_id = $1`
)

var _ snapshot.Store = (*SnapshotStore)(nil)

// SnapshotStore implements snapshot.Store with a single row per cart. The
// upsert is guarded by the version stamp, so a stale writer can never
// clobber a newer snapshot.
type SnapshotStore struct {
	pool   *pgxpool.Pool
	cartID string
	lg     *zap.Logger
}

// NewSnapshotStore returns a SnapshotStore for the given cart identity.
func NewSnapshotStore(pool *pgxpool.Pool, cartID string, lg *zap.Logger) *SnapshotStore {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SnapshotStore{pool: pool, cartID: cartID, lg: lg}
}

// Load reads the stored snapshot for the cart. A missing row and an
// unparseable payload both yield (nil, nil).
func (s *SnapshotStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, getSnapshotSQL, s.cartID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "load snapshot %q", s.cartID)
	}

	snap, err := snapshot.Decode(payload)
	if err != nil {
		s.lg.Warn("discarding unreadable cart snapshot",
			zap.String("cart_id", s.cartID),
			zap.Error(err),
		)
		return nil, nil
	}
	return snap, nil
}

// Save upserts the snapshot row for the cart.
func (s *SnapshotStore) Save(ctx context.Context, snap snapshot.Snapshot) error {
	payload, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, upsertSnapshotSQL,
		snap.CartID, snap.Version, payload, snap.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save snapshot %q", snap.CartID)
	}
	return nil
}
