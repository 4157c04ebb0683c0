// Package ui holds the texts the bots send to chat rooms.
package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/0ad/lobby-bots/internal/domain/model"
	"github.com/0ad/lobby-bots/internal/muc"
)

const timeFormat = "2006-01-02 15:04:05 UTC"

const MuteDurationInvalid = "The mute duration must be between 0 seconds and 5 years"

const ImpersonationReason = "Don't try to impersonate other users"

func FormatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func Muted(player string, muteEnd time.Time) string {
	return fmt.Sprintf("%q is now muted until %s", muc.Localpart(player), FormatTime(muteEnd))
}

func AlreadyMuted(player string, muteEnd time.Time, reason string) string {
	return fmt.Sprintf("%q is already muted until %s for the following reason:\n> %s",
		muc.Localpart(player), FormatTime(muteEnd), reason)
}

func MuteFailed(nick string) string {
	return fmt.Sprintf("Muting %q failed.", nick)
}

func Unmuted(player string) string {
	return fmt.Sprintf("%q is now unmuted again.", muc.Localpart(player))
}

func UnmuteFailed(nick string) string {
	return fmt.Sprintf("Unmuting %q failed.", nick)
}

func KickNobodyOnline(player string) string {
	return fmt.Sprintf("Kicking %q failed. Nobody with this nick is online right now.",
		muc.Localpart(player))
}

func Kicked(player string, rooms []string) string {
	return fmt.Sprintf("Kicked %q from the following MUC rooms: %s",
		muc.Localpart(player), joinRoomNames(rooms))
}

func KickFailed(player string, rooms []string) string {
	return fmt.Sprintf("Kicking %q failed for the following MUC rooms: %s",
		muc.Localpart(player), joinRoomNames(rooms))
}

// MuteList renders the active mutes as an aligned table, one line per
// player.
func MuteList(mutes []model.ModerationEvent) string {
	if len(mutes) == 0 {
		return "No users muted right now."
	}

	maxNickLen := len("*nick*")
	for _, mute := range mutes {
		if l := len(muc.Localpart(mute.Player)); l > maxNickLen {
			maxNickLen = l
		}
	}

	var b strings.Builder
	b.WriteString(pad("*nick*", maxNickLen))
	b.WriteString("\t")
	b.WriteString(pad("*muted until*", len(timeFormat)))
	b.WriteString("\t*reason*")
	for _, mute := range mutes {
		b.WriteString("\n")
		b.WriteString(pad(muc.Localpart(mute.Player), maxNickLen))
		b.WriteString("\t")
		b.WriteString(FormatTime(*mute.MuteEnd))
		b.WriteString("\t")
		b.WriteString(mute.Reason)
	}
	return b.String()
}

func ProfanityWarning(nick string) string {
	return fmt.Sprintf("%s, please mind your language. Repeated incidents lead to an automatic mute.", nick)
}

// AutoMuted is the notification for pipeline-issued mutes. Unlike
// manual mutes it shows the offending content instead of a free-text
// reason.
func AutoMuted(player string, muteEnd time.Time, offendingContent string) string {
	return fmt.Sprintf("%q has been muted automatically until %s for the following message:\n> %s",
		muc.Localpart(player), FormatTime(muteEnd), offendingContent)
}

func ProfanityLanguages(languages []string) string {
	if len(languages) == 0 {
		return "No profanity terms configured."
	}
	sorted := append([]string(nil), languages...)
	sort.Strings(sorted)
	return "Languages with configured profanity terms: " + strings.Join(sorted, ", ")
}

func ProfanityTerms(language string, terms []string) string {
	if len(terms) == 0 {
		return fmt.Sprintf("No profanity terms configured for %q.", language)
	}
	return fmt.Sprintf("Profanity terms for %q: %s", language, strings.Join(terms, ", "))
}

func GameList(names []string) string {
	if len(names) == 0 {
		return "No games are hosted right now."
	}
	return "Hosted games: " + strings.Join(names, ", ")
}

func joinRoomNames(rooms []string) string {
	names := make([]string, 0, len(rooms))
	for _, room := range rooms {
		names = append(names, muc.Localpart(room))
	}
	return strings.Join(names, ", ")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
