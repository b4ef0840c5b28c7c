package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable matches every [UnavailableError].
var ErrUnavailable = errors.New("cache backend unavailable")

// UnavailableError reports a remote backend that never answered a ping.
type UnavailableError struct {
	Backend  string // "redis" or "mongo"
	Attempts int
	Err      error // last ping failure
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s cache unavailable after %d attempt(s): %v", e.Backend, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) hold for any backend.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Connection probing used by the remote backends. Tests shorten the delay.
var (
	pingAttempts = 3
	pingDelay    = time.Second
	pingTimeout  = 5 * time.Second
)

// waitReady pings a freshly opened backend until it answers, doubling the
// pause between attempts. Each ping gets its own timeout so one hung dial
// cannot use up the caller's whole deadline.
func waitReady(ctx context.Context, backend string, ping func(context.Context) error) error {
	delay := pingDelay
	var last error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		last = ping(pctx)
		cancel()
		if last == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == pingAttempts {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return &UnavailableError{Backend: backend, Attempts: pingAttempts, Err: last}
}
