package reconnect

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunBackoffSequence(t *testing.T) {
	c := NewController(nil)

	var delays []time.Duration
	c.OnDelay = func(d time.Duration) { delays = append(delays, d) }
	c.sleep = func(context.Context, time.Duration) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := c.Run(ctx, func(context.Context, func()) error {
		attempts++
		if attempts == 4 {
			cancel()
		}
		return errors.New("connection lost")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v", err)
	}

	// First retry is immediate, then 1s, 3s, never reached 7s because
	// the context was cancelled during the fourth attempt.
	want := []time.Duration{time.Second, 3 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", delays, want)
		}
	}
}

func TestRunResetsBackoffAfterEstablishedSession(t *testing.T) {
	c := NewController(nil)

	var delays []time.Duration
	c.OnDelay = func(d time.Duration) { delays = append(delays, d) }
	c.sleep = func(context.Context, time.Duration) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := c.Run(ctx, func(_ context.Context, established func()) error {
		attempts++
		switch attempts {
		case 3:
			// A fully established session resets the backoff.
			established()
		case 5:
			cancel()
		}
		return errors.New("connection lost")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v", err)
	}

	// Attempts 1 and 2 fail outright (delays 1s, 3s), attempt 3
	// establishes and resets, so attempt 4 retries immediately and
	// attempt 5 waits 1s again.
	want := []time.Duration{time.Second, 3 * time.Second, time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", delays, want)
		}
	}
}

func TestRunStopsOnFatalError(t *testing.T) {
	c := NewController(nil)

	authErr := errors.New("authentication failed")
	attempts := 0
	err := c.Run(context.Background(), func(context.Context, func()) error {
		attempts++
		return Fatal(authErr)
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, authErr) {
		t.Fatalf("Run err = %v, want wrapped auth error", err)
	}
}

func TestFatalClassification(t *testing.T) {
	if IsFatal(errors.New("plain")) {
		t.Fatal("plain error classified fatal")
	}
	if !IsFatal(Fatal(errors.New("bad"))) {
		t.Fatal("Fatal error not classified fatal")
	}
	if Fatal(nil) != nil {
		t.Fatal("Fatal(nil) != nil")
	}
}
