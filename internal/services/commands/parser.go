// Package commands turns free-form chat text into structured moderator
// commands. Parsing never panics and has no side effects: every failure
// is returned as the reply text to send back to the command room.
package commands

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

type Kind string

const (
	KindNone          Kind = ""
	KindMute          Kind = "mute"
	KindUnmute        Kind = "unmute"
	KindKick          Kind = "kick"
	KindMuteList      Kind = "mutelist"
	KindProfanityList Kind = "profanitylist"
)

// Command is a successfully parsed moderator command.
type Command struct {
	Kind     Kind
	User     string
	Duration string
	Reason   string
	Lang     string
}

// Match extracts the command text from a message addressed to the bot.
// Accepted prefixes are the bot nick (with optional colon and optional
// exclamation mark) or a bare exclamation mark, case-insensitive.
func Match(body, botNick string) (string, bool) {
	pattern := regexp.MustCompile(`(?is)^(?:` + regexp.QuoteMeta(botNick) + `:?\s*!?|!)(.+)$`)
	m := pattern.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Parse tokenizes the command text shell-style, so reasons and
// durations can be quoted multi-word arguments. It returns either a
// command or a non-empty reply holding help or usage text.
func Parse(text string) (Command, string) {
	tokens, err := shlex.Split(text)
	if err != nil {
		return Command{}, fmt.Sprintf("%v\n\n%s", err, helpText)
	}
	if len(tokens) == 0 {
		return Command{}, helpText
	}

	switch strings.ToLower(tokens[0]) {
	case "help":
		if len(tokens) >= 2 {
			if usage, ok := usageFor(strings.ToLower(tokens[1])); ok {
				return Command{}, usage
			}
			return Command{}, fmt.Sprintf("invalid command: !%s\n\n%s", tokens[1], helpText)
		}
		return Command{}, helpText
	case "mute":
		if len(tokens) < 4 {
			return Command{}, muteUsage
		}
		return Command{
			Kind:     KindMute,
			User:     tokens[1],
			Duration: tokens[2],
			Reason:   strings.Join(tokens[3:], " "),
		}, ""
	case "unmute":
		if len(tokens) < 3 {
			return Command{}, unmuteUsage
		}
		return Command{
			Kind:   KindUnmute,
			User:   tokens[1],
			Reason: strings.Join(tokens[2:], " "),
		}, ""
	case "kick":
		if len(tokens) < 3 {
			return Command{}, kickUsage
		}
		return Command{
			Kind:   KindKick,
			User:   tokens[1],
			Reason: strings.Join(tokens[2:], " "),
		}, ""
	case "mutelist":
		return Command{Kind: KindMuteList}, ""
	case "profanitylist":
		if len(tokens) < 2 {
			return Command{}, profanityListUsage
		}
		return Command{Kind: KindProfanityList, Lang: tokens[1]}, ""
	default:
		return Command{}, fmt.Sprintf("invalid command: !%s\n\n%s", tokens[0], helpText)
	}
}
