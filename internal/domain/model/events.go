package model

import (
	"strings"
	"time"
)

// EventType discriminates the moderation event variants. Events are
// stored in a single table with unused columns set to NULL.
type EventType string

const (
	EventMute   EventType = "mute"
	EventUnmute EventType = "unmute"
	EventKick   EventType = "kick"
)

// ModerationEvent is a single record of the append-only moderation log.
// MuteEnd is only set for mute events. Whether a mute is active is never
// stored, it is always derived from the log and "now".
type ModerationEvent struct {
	ID        int64
	EventDate time.Time
	Type      EventType
	Moderator string
	Player    string
	Reason    string
	MuteEnd   *time.Time
}

// ActiveAt reports whether a mute event is active at the given instant.
// A mute is active if the instant lies in [event_date, mute_end) and no
// unmute event for the same player falls into that window. The postgres
// event store mirrors this predicate as a SQL filter.
func (e ModerationEvent) ActiveAt(now time.Time, unmutes []ModerationEvent) bool {
	if e.Type != EventMute || e.MuteEnd == nil {
		return false
	}
	if e.EventDate.After(now) || !now.Before(*e.MuteEnd) {
		return false
	}
	for _, u := range unmutes {
		if u.Type != EventUnmute || !strings.EqualFold(u.Player, e.Player) {
			continue
		}
		if !u.EventDate.Before(e.EventDate) && u.EventDate.Before(*e.MuteEnd) {
			return false
		}
	}
	return true
}

// NormalizePlayer lower-cases a bare JID so it can be used as the
// canonical sanction key.
func NormalizePlayer(jid string) string {
	return strings.ToLower(strings.TrimSpace(jid))
}
