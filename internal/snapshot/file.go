package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// FileStore persists snapshots to a single JSON file. Writes go through a
// temp file and rename so a crash mid-write never leaves a torn payload.
type FileStore struct {
	path string
	lg   *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string, lg *zap.Logger) *FileStore {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &FileStore{path: path, lg: lg}
}

// Load reads the stored snapshot. A missing file and an unparseable payload
// both yield (nil, nil): the caller starts from an empty cart, and a corrupt
// payload is logged rather than propagated.
func (f *FileStore) Load(_ context.Context) (*Snapshot, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read snapshot %s", f.path)
	}
	if len(b) == 0 {
		return nil, nil
	}

	snap, err := Decode(b)
	if err != nil {
		f.lg.Warn("discarding unreadable cart snapshot",
			zap.String("path", f.path),
			zap.Error(err),
		)
		return nil, nil
	}
	return snap, nil
}

// Save atomically replaces the stored snapshot.
func (f *FileStore) Save(_ context.Context, snap Snapshot) error {
	b, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}
