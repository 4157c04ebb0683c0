package moderation

import (
	"context"
	"sync"
	"time"
)

// Action runs when a mute expires naturally. It receives the player key
// and the mute end the timer was scheduled for.
type Action func(ctx context.Context, player string, muteEnd time.Time)

type muteTimer struct {
	muteEnd time.Time
	cancel  context.CancelFunc
}

// Scheduler keeps one cancellable timer per muted player. The map entry
// is the single authority for whether a timer is still live: firing
// claims and removes the entry under the lock before any transport
// action runs, and cancellation removes the entry before cancelling, so
// a cancelled timer can never act.
type Scheduler struct {
	clock func() time.Time

	mu     sync.Mutex
	timers map[string]*muteTimer
}

func NewScheduler(clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		clock:  clock,
		timers: make(map[string]*muteTimer),
	}
}

// Schedule arranges for fire to run once muteEnd has passed, replacing
// any previous timer for the player.
func (s *Scheduler) Schedule(player string, muteEnd time.Time, fire Action) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &muteTimer{muteEnd: muteEnd, cancel: cancel}

	s.mu.Lock()
	if old, ok := s.timers[player]; ok {
		delete(s.timers, player)
		old.cancel()
	}
	s.timers[player] = t
	s.mu.Unlock()

	go s.run(ctx, t, player, fire)
}

func (s *Scheduler) run(ctx context.Context, t *muteTimer, player string, fire Action) {
	delay := t.muteEnd.Sub(s.clock())
	if delay < 0 {
		delay = 0
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if !s.claim(player, t) {
		return
	}
	fire(ctx, player, t.muteEnd)
}

// claim removes the entry if it still belongs to this timer. Returns
// false when the timer was superseded or cancelled in the meantime.
func (s *Scheduler) claim(player string, t *muteTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.timers[player]; !ok || current != t {
		return false
	}
	delete(s.timers, player)
	return true
}

// Cancel stops the pending timer for a player, if any.
func (s *Scheduler) Cancel(player string) bool {
	s.mu.Lock()
	t, ok := s.timers[player]
	if ok {
		delete(s.timers, player)
	}
	s.mu.Unlock()

	if ok {
		t.cancel()
	}
	return ok
}

// CancelAll stops every pending timer. Called on disconnect so no
// unmute action can fire while the session is down.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[string]*muteTimer)
	s.mu.Unlock()

	for _, t := range timers {
		t.cancel()
	}
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Deadline returns the scheduled end for a player's pending timer.
func (s *Scheduler) Deadline(player string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[player]; ok {
		return t.muteEnd, true
	}
	return time.Time{}, false
}
