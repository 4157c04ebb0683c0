// Package muc defines the boundary between the bots and the chat
// network. The moderation core only ever talks to the Transport
// interface, never to an XMPP library directly, so it can be exercised
// with a fake in tests.
package muc

import (
	"context"
	"errors"
	"strings"
)

// Room roles as granted by the chat service. A mute is enforced by
// lowering a participant to visitor, a kick by setting the role to none.
const (
	RoleModerator   = "moderator"
	RoleParticipant = "participant"
	RoleVisitor     = "visitor"
	RoleNone        = "none"
)

// ErrAuthFailed marks a permanently failing login. The reconnection
// controller treats it as fatal and shuts the service down instead of
// retrying.
var ErrAuthFailed = errors.New("authentication failed")

// Occupant is a member currently present in a room.
type Occupant struct {
	Nick string
	JID  string // bare identity, may be empty if not yet resolved
	Role string
}

// Transport is the narrow contract the bots consume. Implementations
// are expected to be safe for use from the event loop plus the timer
// goroutines.
type Transport interface {
	JoinRoom(ctx context.Context, room, nick string) error
	SendGroupchat(ctx context.Context, room, body string) error
	SetRole(ctx context.Context, room, nick, role, reason string) error
	Occupants(room string) []Occupant
	OccupantJID(room, nick string) (string, bool)
}

// Event is a transport lifecycle or room event, delivered one at a time
// to the consuming bot.
type Event interface{ isEvent() }

// Message is a groupchat message received in a joined room. Delayed
// messages are room history replayed on join and must not trigger
// actions.
type Message struct {
	Room    string
	Nick    string
	Body    string
	Delayed bool
}

// Presence reports an occupant joining, changing role or leaving a
// room. Type is empty for joins/updates and "unavailable" for leaves.
type Presence struct {
	Room string
	Nick string
	JID  string
	Role string
	Type string
}

// Disconnected signals that the session ended. Err is nil for an
// orderly shutdown.
type Disconnected struct {
	Err error
}

func (Message) isEvent()      {}
func (Presence) isEvent()     {}
func (Disconnected) isEvent() {}

// Localpart returns the part of a JID before the '@'.
func Localpart(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// Bare strips the resource suffix from a JID.
func Bare(jid string) string {
	if i := strings.IndexByte(jid, '/'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// FindNick resolves the case-sensitive nick of a user present in a room
// given the case-insensitive one, usually a JID local part.
func FindNick(t Transport, room, nick string) (string, bool) {
	for _, occ := range t.Occupants(room) {
		if strings.EqualFold(occ.Nick, nick) {
			return occ.Nick, true
		}
	}
	return "", false
}
