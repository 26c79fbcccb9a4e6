package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/shopkart/internal/cart"
)

// Saver writes committed cart states to a Store asynchronously. Saves are
// fire-and-forget from the store's point of view: a failed write is logged,
// never surfaced, and never rolls back the in-memory state.
//
// Ordering: Enqueue coalesces into a single latest-wins slot keyed by the
// state's version stamp, and one worker goroutine drains the slot. A later
// save can therefore never be overtaken by an earlier, slower one.
type Saver struct {
	store   Store
	lg      *zap.Logger
	timeout time.Duration

	mu           sync.Mutex
	pending      *Snapshot
	pendingSince time.Time

	notify chan struct{}
}

var _ cart.Saver = (*Saver)(nil)

// NewSaver returns a Saver writing to store. Run must be started for
// enqueued snapshots to be written.
func NewSaver(store Store, lg *zap.Logger) *Saver {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Saver{
		store:   store,
		lg:      lg,
		timeout: 5 * time.Second,
		notify:  make(chan struct{}, 1),
	}
}

// Enqueue schedules the state for persistence. It never blocks: a newer
// state replaces a not-yet-written older one, a stale state is dropped.
func (s *Saver) Enqueue(state cart.State) {
	snap := FromState(state)

	s.mu.Lock()
	if s.pending == nil {
		s.pendingSince = time.Now()
	}
	if s.pending == nil || snap.Version > s.pending.Version {
		s.pending = &snap
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// PendingSince reports when the currently queued snapshot was enqueued, or
// the zero time when nothing is waiting. Health probes use it to detect a
// stuck save worker.
func (s *Saver) PendingSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingSince
}

// Run drains enqueued snapshots until ctx is cancelled, then flushes the
// last pending snapshot and returns.
func (s *Saver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		case <-s.notify:
			s.writePending(ctx)
		}
	}
}

// writePending takes the pending snapshot, if any, and writes it.
func (s *Saver) writePending(ctx context.Context) {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.pendingSince = time.Time{}
	s.mu.Unlock()

	if snap == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.store.Save(saveCtx, *snap); err != nil {
		s.lg.Warn("cart snapshot save failed",
			zap.String("cart_id", snap.CartID),
			zap.Uint64("version", snap.Version),
			zap.Error(err),
		)
	}
}

// flush performs one final synchronous write on shutdown.
func (s *Saver) flush() {
	s.writePending(context.Background())
}
