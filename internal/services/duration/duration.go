// Package duration resolves human-entered mute durations into absolute
// UTC instants. Compact forms like "5m" or "1w2d6h" and natural phrases
// like "2 months" are both accepted.
package duration

import (
	"errors"
	"regexp"
	"strings"
	"time"

	naturaldate "github.com/tj/go-naturaldate"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// ErrUnparseable marks input that no parser could resolve to a future
// instant. Callers surface it as a user-facing rejection, it is never
// fatal.
var ErrUnparseable = errors.New("unparseable duration")

// Compact forms glued together like "5m10h" confuse the natural
// language parser, so split them before handing the text over.
var glued = regexp.MustCompile(`(\d)([dhms])(\d)`)

// Parse resolves text into an absolute end instant strictly after now.
// The result is in UTC.
func Parse(text string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, ErrUnparseable
	}

	if d, err := str2duration.ParseDuration(strings.ReplaceAll(trimmed, " ", "")); err == nil {
		if d <= 0 {
			return time.Time{}, ErrUnparseable
		}
		return now.Add(d).UTC(), nil
	}

	normalized := glued.ReplaceAllString(trimmed, "$1$2 $3")
	end, err := naturaldate.Parse(normalized, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil || !end.After(now) {
		return time.Time{}, ErrUnparseable
	}
	return end.UTC(), nil
}
