// Package reconnect drives the session lifecycle of a bot: it reruns a
// blocking session function with growing backoff and distinguishes
// retryable disconnects from fatal ones.
package reconnect

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Fatal wraps errors that must abort the retry loop, such as failing
// authentication, where further attempts cannot succeed.
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

// Fatal marks an error as non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fatalError{err: err}
}

// IsFatal reports whether the error was marked with Fatal.
func IsFatal(err error) bool {
	var f fatalError
	return errors.As(err, &f)
}

// Session establishes a connection and blocks until it ends. It must
// call established once the session is fully up, which resets the
// backoff.
type Session func(ctx context.Context, established func()) error

type Controller struct {
	logger *slog.Logger

	// OnDelay, if set, is invoked with the wait time before each
	// reconnection attempt.
	OnDelay func(time.Duration)

	// sleep waits for the backoff delay, replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger: logger,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		},
	}
}

// Run loops the session until the context is cancelled or a fatal error
// occurs. The wait time starts at zero, grows as next = current*2 + 1
// seconds after each ended session and resets to zero once a session is
// fully established.
func (c *Controller) Run(ctx context.Context, session Session) error {
	var wait time.Duration

	for {
		established := false
		err := session(ctx, func() { established = true })
		if IsFatal(err) {
			c.logger.Error("can't log in, aborting reconnects", "error", err)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Warn("session ended", "error", err)
		}

		if established {
			wait = 0
		}
		if wait > 0 {
			c.logger.Info("waiting before reconnect", "delay", wait)
			if c.OnDelay != nil {
				c.OnDelay(wait)
			}
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
		wait = wait*2 + time.Second
	}
}
