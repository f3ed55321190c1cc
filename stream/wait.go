package stream

import (
	"context"
	"time"
)

const (
	minBackoff = 50 * time.Microsecond
	maxBackoff = 5 * time.Millisecond
)

// waitFor polls ready with exponential backoff. It gives up with ErrClosed
// once closed reports true and ready still does not, with ErrTimeout after
// timeout (if positive), or with the context's error.
func waitFor(ctx context.Context, timeout time.Duration, ready, closed func() bool) error {
	if ready() {
		return nil
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	backoff := minBackoff
	t := time.NewTimer(backoff)
	defer t.Stop()
	for {
		// Closed is checked first so bytes committed before Close are seen.
		if closed() {
			if ready() {
				return nil
			}
			return ErrClosed
		}
		if ready() {
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return ErrTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
		t.Reset(backoff)
	}
}
