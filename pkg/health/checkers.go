package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck flags a goroutine leak. Useful as a liveness probe
// since the cart server runs a fixed, small set of goroutines.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// BacklogCheck flags a background worker that has stopped draining its
// queue. pendingSince returns when the oldest queued item arrived, or the
// zero time when the worker is idle. The check fails once queued work has
// been waiting longer than maxAge. Used as a liveness probe for the
// snapshot saver.
func BacklogCheck(maxAge time.Duration, pendingSince func() time.Time) CheckFunc {
	return func(context.Context) error {
		since := pendingSince()
		if since.IsZero() {
			return nil
		}
		if age := time.Since(since); age > maxAge {
			return errors.Errorf("work pending for %s, limit %s", age, maxAge)
		}
		return nil
	}
}
