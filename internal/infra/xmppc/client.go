// Package xmppc adapts an XMPP connection to the transport contract the
// bots consume. It keeps a per-room occupant table, resolving roles and
// real JIDs through muc#admin role list queries since plain presences
// do not carry them.
package xmppc

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	xmpp "github.com/xmppo/go-xmpp"

	"github.com/0ad/lobby-bots/internal/config"
	"github.com/0ad/lobby-bots/internal/muc"
)

// eventBuffer bounds the channel to the consuming bot. The event loop
// drains it quickly, the buffer only absorbs join bursts.
const eventBuffer = 256

type Client struct {
	conn   *xmpp.Client
	logger *slog.Logger
	events chan muc.Event

	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	rooms   map[string]map[string]muc.Occupant // room JID -> nick -> occupant
	pending map[string]string                  // IQ id -> room JID of an in-flight role list query
	nick    string
}

// Connect dials the server and authenticates. Authentication failures
// are wrapped in muc.ErrAuthFailed so the reconnection controller stops
// retrying.
func Connect(cfg config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	server := cfg.Server
	if server == "" {
		server = cfg.Domain()
	}

	options := xmpp.Options{
		Host:     server,
		User:     cfg.JID,
		Password: cfg.Password,
		Resource: "lobby-" + uuid.NewString(),
		NoTLS:    true,
		StartTLS: true,
		Session:  true,
		TLSConfig: &tls.Config{
			ServerName:         cfg.Domain(),
			InsecureSkipVerify: cfg.NoVerifyTLS,
		},
	}

	conn, err := options.NewClient()
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", muc.ErrAuthFailed, err)
		}
		return nil, fmt.Errorf("connect to %s: %w", server, err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		events:  make(chan muc.Event, eventBuffer),
		done:    make(chan struct{}),
		rooms:   make(map[string]map[string]muc.Occupant),
		pending: make(map[string]string),
		nick:    cfg.Nick,
	}
	go c.recvLoop()
	return c, nil
}

// Events delivers room messages, presences and the final disconnect.
// The channel closes after the Disconnected event.
func (c *Client) Events() <-chan muc.Event { return c.events }

// Close ends the session and releases the receive goroutine, which may
// be blocked delivering events nobody consumes anymore.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.conn.Close()
}

// emit delivers an event unless the client is closed. A send that would
// block forever on a full buffer after Close would leak the receive
// goroutine on every reconnect.
func (c *Client) emit(event muc.Event) bool {
	select {
	case c.events <- event:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) JoinRoom(_ context.Context, room, nick string) error {
	if _, err := c.conn.JoinMUCNoHistory(room, nick); err != nil {
		return fmt.Errorf("join room %s: %w", room, err)
	}
	c.mu.Lock()
	if _, ok := c.rooms[room]; !ok {
		c.rooms[room] = make(map[string]muc.Occupant)
	}
	c.mu.Unlock()
	return c.queryRoles(room)
}

func (c *Client) SendGroupchat(_ context.Context, room, body string) error {
	_, err := c.conn.Send(xmpp.Chat{Remote: room, Type: "groupchat", Text: body})
	if err != nil {
		return fmt.Errorf("send groupchat to %s: %w", room, err)
	}
	return nil
}

func (c *Client) SetRole(_ context.Context, room, nick, role, reason string) error {
	stanza, err := setRoleIQ(uuid.NewString(), room, nick, role, reason)
	if err != nil {
		return err
	}
	if _, err := c.conn.SendOrg(stanza); err != nil {
		return fmt.Errorf("set role of %s in %s: %w", nick, room, err)
	}
	return nil
}

func (c *Client) Occupants(room string) []muc.Occupant {
	c.mu.Lock()
	defer c.mu.Unlock()

	occupants := make([]muc.Occupant, 0, len(c.rooms[room]))
	for _, occ := range c.rooms[room] {
		occupants = append(occupants, occ)
	}
	return occupants
}

func (c *Client) OccupantJID(room, nick string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, occ := range c.rooms[room] {
		if strings.EqualFold(occ.Nick, nick) && occ.JID != "" {
			return occ.JID, true
		}
	}
	return "", false
}

// queryRoles requests the occupant lists of a room, one query per role.
// Results come back asynchronously as IQ stanzas.
func (c *Client) queryRoles(room string) error {
	for _, role := range []string{muc.RoleModerator, muc.RoleParticipant, muc.RoleVisitor} {
		id := uuid.NewString()
		stanza, err := roleListIQ(id, room, role)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.pending[id] = room
		c.mu.Unlock()
		if _, err := c.conn.SendOrg(stanza); err != nil {
			return fmt.Errorf("query %s list of %s: %w", role, room, err)
		}
	}
	return nil
}

func (c *Client) recvLoop() {
	defer close(c.events)
	for {
		stanza, err := c.conn.Recv()
		if err != nil {
			c.emit(muc.Disconnected{Err: err})
			return
		}

		switch v := stanza.(type) {
		case xmpp.Chat:
			c.handleChat(v)
		case xmpp.Presence:
			c.handlePresence(v)
		case xmpp.IQ:
			c.handleIQ(v)
		}
	}
}

func (c *Client) handleChat(chat xmpp.Chat) {
	if chat.Type != "groupchat" {
		return
	}
	room := muc.Bare(chat.Remote)
	nick := resource(chat.Remote)
	if nick == "" || nick == c.nick {
		return
	}
	c.emit(muc.Message{
		Room:    room,
		Nick:    nick,
		Body:    chat.Text,
		Delayed: !chat.Stamp.IsZero(),
	})
}

func (c *Client) handlePresence(p xmpp.Presence) {
	room := muc.Bare(p.From)
	nick := resource(p.From)

	c.mu.Lock()
	occupants, joined := c.rooms[room]
	c.mu.Unlock()
	if !joined || nick == "" {
		return
	}

	if p.Type == "unavailable" {
		c.mu.Lock()
		known, ok := occupants[nick]
		delete(occupants, nick)
		c.mu.Unlock()

		event := muc.Presence{Room: room, Nick: nick, Type: "unavailable"}
		if ok {
			event.JID = known.JID
			event.Role = known.Role
		}
		c.emit(event)
		return
	}

	// Plain presences carry neither role nor real JID; track the nick
	// and refresh the role lists, the IQ result emits the full event.
	c.mu.Lock()
	if _, ok := occupants[nick]; !ok {
		occupants[nick] = muc.Occupant{Nick: nick}
	}
	c.mu.Unlock()

	if err := c.queryRoles(room); err != nil {
		c.logger.Warn("refreshing room roles failed", "room", room, "error", err)
	}
}

// handleIQ resolves role list results into occupant updates. Every
// occupant whose role or JID changed is surfaced as a presence event so
// the moderation engine can reconcile it.
func (c *Client) handleIQ(iq xmpp.IQ) {
	if iq.Type != "result" {
		return
	}

	c.mu.Lock()
	room, ok := c.pending[iq.ID]
	delete(c.pending, iq.ID)
	c.mu.Unlock()
	if !ok {
		return
	}

	items, err := parseAdminQuery(iq.Query)
	if err != nil {
		c.logger.Warn("unreadable role list result", "room", room, "error", err)
		return
	}

	var changed []muc.Occupant
	c.mu.Lock()
	occupants := c.rooms[room]
	for _, item := range items {
		if item.Nick == "" || item.Nick == c.nick {
			continue
		}
		occ := muc.Occupant{Nick: item.Nick, JID: muc.Bare(item.JID), Role: item.Role}
		if prev, ok := occupants[item.Nick]; !ok || prev.Role != occ.Role || prev.JID != occ.JID {
			occupants[item.Nick] = occ
			changed = append(changed, occ)
		}
	}
	c.mu.Unlock()

	for _, occ := range changed {
		if !c.emit(muc.Presence{Room: room, Nick: occ.Nick, JID: occ.JID, Role: occ.Role}) {
			return
		}
	}
}

func resource(jid string) string {
	if i := strings.IndexByte(jid, '/'); i >= 0 {
		return jid[i+1:]
	}
	return ""
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "auth") || strings.Contains(msg, "not-authorized")
}
