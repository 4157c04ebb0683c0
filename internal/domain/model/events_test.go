package model

import (
	"testing"
	"time"
)

func muteEvent(player string, start time.Time, d time.Duration) ModerationEvent {
	end := start.Add(d)
	return ModerationEvent{
		EventDate: start,
		Type:      EventMute,
		Player:    player,
		MuteEnd:   &end,
	}
}

func TestActiveAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mute := muteEvent("user@lobby.example.org", start, time.Hour)

	cases := []struct {
		name    string
		now     time.Time
		unmutes []ModerationEvent
		want    bool
	}{
		{name: "before start", now: start.Add(-time.Second), want: false},
		{name: "at start", now: start, want: true},
		{name: "within window", now: start.Add(30 * time.Minute), want: true},
		{name: "at end", now: start.Add(time.Hour), want: false},
		{name: "after end", now: start.Add(2 * time.Hour), want: false},
		{
			name: "terminated by unmute",
			now:  start.Add(30 * time.Minute),
			unmutes: []ModerationEvent{{
				EventDate: start.Add(10 * time.Minute),
				Type:      EventUnmute,
				Player:    "user@lobby.example.org",
			}},
			want: false,
		},
		{
			name: "unmute for other player ignored",
			now:  start.Add(30 * time.Minute),
			unmutes: []ModerationEvent{{
				EventDate: start.Add(10 * time.Minute),
				Type:      EventUnmute,
				Player:    "other@lobby.example.org",
			}},
			want: true,
		},
		{
			name: "unmute before the mute ignored",
			now:  start.Add(30 * time.Minute),
			unmutes: []ModerationEvent{{
				EventDate: start.Add(-time.Hour),
				Type:      EventUnmute,
				Player:    "user@lobby.example.org",
			}},
			want: true,
		},
		{
			name: "unmute after mute end ignored",
			now:  start.Add(30 * time.Minute),
			unmutes: []ModerationEvent{{
				EventDate: start.Add(2 * time.Hour),
				Type:      EventUnmute,
				Player:    "user@lobby.example.org",
			}},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mute.ActiveAt(tc.now, tc.unmutes); got != tc.want {
				t.Fatalf("ActiveAt(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestActiveAtNonMuteEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	kick := ModerationEvent{EventDate: now.Add(-time.Minute), Type: EventKick, Player: "u@d"}
	if kick.ActiveAt(now, nil) {
		t.Error("kick event must never be active")
	}

	broken := ModerationEvent{EventDate: now.Add(-time.Minute), Type: EventMute, Player: "u@d"}
	if broken.ActiveAt(now, nil) {
		t.Error("mute without an end must never be active")
	}
}

func TestNormalizePlayer(t *testing.T) {
	if got := NormalizePlayer("  UsEr@Lobby.Example.ORG "); got != "user@lobby.example.org" {
		t.Fatalf("NormalizePlayer = %q", got)
	}
}
