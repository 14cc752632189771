package host

import (
	"context"
	"time"

	"github.com/loomui/loom/internal/errors"
)

// Readiness wait tuning. Session creation polls the engine with capped
// exponential backoff until it reports ready or the deadline passes.
const (
	readyInitialBackoff = 2 * time.Millisecond
	readyMaxBackoff     = 250 * time.Millisecond

	// DefaultReadyDeadline bounds the whole readiness wait.
	DefaultReadyDeadline = 5 * time.Second
)

// WaitReady blocks until the engine reports the window ready. Exceeding
// the deadline is fatal to session creation.
func WaitReady(ctx context.Context, b *Bridge, windowID uint64, deadline time.Duration) error {
	if deadline <= 0 {
		deadline = DefaultReadyDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	backoff := readyInitialBackoff
	for {
		ready, err := b.Ready(ctx, windowID)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Newf(errors.CodeReadinessTimeout, "window %d after %s", windowID, deadline).Wrap(ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > readyMaxBackoff {
			backoff = readyMaxBackoff
		}
	}
}
