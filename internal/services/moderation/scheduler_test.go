package moderation

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSchedulerFires(t *testing.T) {
	s := NewScheduler(nil)

	fired := make(chan string, 1)
	s.Schedule("user@d", time.Now().Add(10*time.Millisecond), func(_ context.Context, player string, _ time.Time) {
		fired <- player
	})

	select {
	case player := <-fired:
		if player != "user@d" {
			t.Fatalf("fired for %q", player)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if s.Len() != 0 {
		t.Fatalf("timer map not empty after firing: %d", s.Len())
	}
}

func TestSchedulerFiresImmediatelyForPastDeadline(t *testing.T) {
	s := NewScheduler(nil)

	fired := make(chan struct{}, 1)
	s.Schedule("user@d", time.Now().Add(-time.Hour), func(context.Context, string, time.Time) {
		fired <- struct{}{}
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expired deadline did not fire")
	}
}

func TestSchedulerCancelPreventsFiring(t *testing.T) {
	s := NewScheduler(nil)

	var mu sync.Mutex
	fired := false
	s.Schedule("user@d", time.Now().Add(20*time.Millisecond), func(context.Context, string, time.Time) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	if !s.Cancel("user@d") {
		t.Fatal("Cancel returned false for a pending timer")
	}
	if s.Cancel("user@d") {
		t.Fatal("second Cancel returned true")
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("cancelled timer fired")
	}
}

func TestSchedulerReplaceSupersedesOldTimer(t *testing.T) {
	s := NewScheduler(nil)

	fired := make(chan time.Time, 2)
	action := func(_ context.Context, _ string, muteEnd time.Time) {
		fired <- muteEnd
	}

	first := time.Now().Add(20 * time.Millisecond)
	second := time.Now().Add(60 * time.Millisecond)
	s.Schedule("user@d", first, action)
	s.Schedule("user@d", second, action)

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	select {
	case muteEnd := <-fired:
		if !muteEnd.Equal(second) {
			t.Fatalf("fired with deadline %v, want %v", muteEnd, second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replacement timer never fired")
	}

	select {
	case <-fired:
		t.Fatal("superseded timer fired as well")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	s := NewScheduler(nil)

	for _, player := range []string{"a@d", "b@d", "c@d"} {
		s.Schedule(player, time.Now().Add(time.Hour), func(context.Context, string, time.Time) {
			t.Error("timer fired after CancelAll")
		})
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	s.CancelAll()
	if s.Len() != 0 {
		t.Fatalf("Len = %d after CancelAll", s.Len())
	}
}

func TestSchedulerDeadline(t *testing.T) {
	s := NewScheduler(nil)
	end := time.Now().Add(time.Hour)
	s.Schedule("user@d", end, func(context.Context, string, time.Time) {})

	got, ok := s.Deadline("user@d")
	if !ok || !got.Equal(end) {
		t.Fatalf("Deadline = %v, %v", got, ok)
	}
	if _, ok := s.Deadline("other@d"); ok {
		t.Fatal("Deadline for unknown player reported ok")
	}
	s.CancelAll()
}
