// Package moderation implements the moderation state machine: deriving
// sanction state from the append-only event log, keeping the unmute
// timers in sync with it, and enforcing roles at the transport boundary.
package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/0ad/lobby-bots/internal/domain/model"
	"github.com/0ad/lobby-bots/internal/muc"
	"github.com/0ad/lobby-bots/internal/services/duration"
	"github.com/0ad/lobby-bots/internal/ui"
)

// MaxMuteDuration bounds manual mute durations.
const MaxMuteDuration = 5 * 365 * 24 * time.Hour

// EventStore is the append-only moderation event log.
type EventStore interface {
	Insert(ctx context.Context, event model.ModerationEvent) error
	ActiveMute(ctx context.Context, player string, now time.Time) (model.ModerationEvent, bool, error)
	ActiveMutes(ctx context.Context, now time.Time) ([]model.ModerationEvent, error)
}

// Directory answers whether an identity may issue commands. Checked on
// every command, never cached.
type Directory interface {
	IsModerator(ctx context.Context, jid string) (bool, error)
}

// NickAllowlist lists identities exempt from the impersonation check.
type NickAllowlist interface {
	IsWhitelisted(ctx context.Context, jid string) (bool, error)
}

// ParseDuration resolves duration text into an absolute end instant
// strictly after now, or fails with duration.ErrUnparseable.
type ParseDuration func(text string, now time.Time) (time.Time, error)

type Deps struct {
	Events        EventStore
	Moderators    Directory
	NickAllowlist NickAllowlist
	Transport     muc.Transport
	Scheduler     *Scheduler
	Logger        *slog.Logger
	Clock         func() time.Time
	ParseDuration ParseDuration

	BotJID      string   // bare JID of the bot itself
	Domain      string   // XMPP domain users belong to
	Rooms       []string // monitored room JIDs
	CommandRoom string   // room JID moderators issue commands in
}

type Service struct {
	events        EventStore
	moderators    Directory
	allowlist     NickAllowlist
	transport     muc.Transport
	sched         *Scheduler
	logger        *slog.Logger
	clock         func() time.Time
	parseDuration ParseDuration

	botJID      string
	domain      string
	rooms       []string
	commandRoom string
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.ParseDuration == nil {
		deps.ParseDuration = duration.Parse
	}
	return &Service{
		events:        deps.Events,
		moderators:    deps.Moderators,
		allowlist:     deps.NickAllowlist,
		transport:     deps.Transport,
		sched:         deps.Scheduler,
		logger:        deps.Logger,
		clock:         deps.Clock,
		parseDuration: deps.ParseDuration,
		botJID:        model.NormalizePlayer(deps.BotJID),
		domain:        deps.Domain,
		rooms:         deps.Rooms,
		commandRoom:   deps.CommandRoom,
	}
}

// IsModerator reports whether the identity may issue commands.
func (s *Service) IsModerator(ctx context.Context, jid string) (bool, error) {
	return s.moderators.IsModerator(ctx, muc.Bare(jid))
}

// PlayerJID expands a nick given in a command to the bare JID used as
// sanction key.
func (s *Service) PlayerJID(nick string) string {
	return model.NormalizePlayer(nick + "@" + s.domain)
}

// Mute sanctions a player for the given duration. The new mute is
// rejected while another one is active, so at most one mute per player
// is ever live.
func (s *Service) Mute(ctx context.Context, player, durationText, moderator, reason string) {
	now := s.clock()

	muteEnd, err := s.parseDuration(durationText, now)
	if err != nil || muteEnd.After(now.Add(MaxMuteDuration)) {
		s.reply(ctx, ui.MuteDurationInvalid)
		return
	}

	existing, active, err := s.events.ActiveMute(ctx, player, now)
	if err != nil {
		s.logger.Error("query active mute", "player", player, "error", err)
		return
	}
	if active {
		s.reply(ctx, ui.AlreadyMuted(player, *existing.MuteEnd, existing.Reason))
		return
	}

	event := model.ModerationEvent{
		EventDate: now,
		Type:      model.EventMute,
		Moderator: moderator,
		Player:    player,
		Reason:    reason,
		MuteEnd:   &muteEnd,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("persist mute event", "player", player, "error", err)
		return
	}

	s.applyMute(ctx, player, reason)
	s.sched.Schedule(player, muteEnd, s.unmuteExpired)
	s.reply(ctx, ui.Muted(player, muteEnd))
}

// AutoMute is the non-interactive variant used by the profanity
// pipeline. The mute is attributed to the bot itself and the
// notification shows the offending content instead of a reason.
func (s *Service) AutoMute(ctx context.Context, player string, d time.Duration, offendingContent string) {
	now := s.clock()
	muteEnd := now.Add(d)

	_, active, err := s.events.ActiveMute(ctx, player, now)
	if err != nil {
		s.logger.Error("query active mute", "player", player, "error", err)
		return
	}
	if active {
		s.logger.Info("skipping auto-mute, player already muted", "player", player)
		return
	}

	event := model.ModerationEvent{
		EventDate: now,
		Type:      model.EventMute,
		Moderator: s.botJID,
		Player:    player,
		Reason:    "Profanity",
		MuteEnd:   &muteEnd,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("persist auto-mute event", "player", player, "error", err)
		return
	}

	s.applyMute(ctx, player, "Profanity")
	s.sched.Schedule(player, muteEnd, s.unmuteExpired)
	s.reply(ctx, ui.AutoMuted(player, muteEnd, offendingContent))
}

func (s *Service) applyMute(ctx context.Context, player, reason string) {
	for _, room := range s.rooms {
		nick, ok := muc.FindNick(s.transport, room, muc.Localpart(player))
		if !ok {
			continue
		}
		if err := s.transport.SetRole(ctx, room, nick, muc.RoleVisitor, reason); err != nil {
			s.logger.Error("muting on room failed", "room", room, "nick", nick, "error", err)
			s.reply(ctx, ui.MuteFailed(nick))
		}
	}
}

// Unmute lifts a player's mute. The unmute event terminates the active
// mute logically, history is never rewritten.
func (s *Service) Unmute(ctx context.Context, player, moderator, reason string) {
	event := model.ModerationEvent{
		EventDate: s.clock(),
		Type:      model.EventUnmute,
		Moderator: moderator,
		Player:    player,
		Reason:    reason,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("persist unmute event", "player", player, "error", err)
		return
	}

	for _, room := range s.rooms {
		nick, ok := muc.FindNick(s.transport, room, muc.Localpart(player))
		if !ok {
			continue
		}
		if err := s.transport.SetRole(ctx, room, nick, muc.RoleParticipant, reason); err != nil {
			s.logger.Error("unmuting on room failed", "room", room, "nick", nick, "error", err)
			s.reply(ctx, ui.UnmuteFailed(nick))
		}
	}

	s.sched.Cancel(player)
	s.reply(ctx, ui.Unmuted(player))
}

// Kick removes a player from every room they are present in. One-shot,
// no future state and no timer.
func (s *Service) Kick(ctx context.Context, player, moderator, reason string) {
	event := model.ModerationEvent{
		EventDate: s.clock(),
		Type:      model.EventKick,
		Moderator: moderator,
		Player:    player,
		Reason:    reason,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("persist kick event", "player", player, "error", err)
		return
	}

	var kicked, failed []string
	for _, room := range s.rooms {
		nick, ok := muc.FindNick(s.transport, room, muc.Localpart(player))
		if !ok {
			continue
		}
		if err := s.transport.SetRole(ctx, room, nick, muc.RoleNone, reason); err != nil {
			s.logger.Error("kicking on room failed", "room", room, "nick", nick, "error", err)
			failed = append(failed, room)
			continue
		}
		kicked = append(kicked, room)
	}

	if len(kicked) == 0 {
		s.reply(ctx, ui.KickNobodyOnline(player))
		return
	}
	s.reply(ctx, ui.Kicked(player, kicked))
	if len(failed) > 0 {
		s.reply(ctx, ui.KickFailed(player, failed))
	}
}

// MuteList reports the currently active mutes to the command room.
func (s *Service) MuteList(ctx context.Context) {
	mutes, err := s.events.ActiveMutes(ctx, s.clock())
	if err != nil {
		s.logger.Error("query active mutes", "error", err)
		return
	}
	s.reply(ctx, ui.MuteList(mutes))
}

// Recover rebuilds the timer set from the event log. Called on session
// start and after every reconnect; whatever timers existed before are
// discarded, so the set is always a projection of the persisted state.
func (s *Service) Recover(ctx context.Context) error {
	mutes, err := s.events.ActiveMutes(ctx, s.clock())
	if err != nil {
		return err
	}

	s.sched.CancelAll()
	for _, mute := range mutes {
		s.sched.Schedule(mute.Player, *mute.MuteEnd, s.unmuteExpired)
	}

	s.logger.Info("timers resynchronized", "active_mutes", len(mutes))
	return nil
}

// HandlePresence runs the impersonation check and the role
// reconciliation for a user joining a monitored room. This is how
// sanctions issued while a user was offline get applied, and how stale
// restrictions get lifted, independent of the timers.
func (s *Service) HandlePresence(ctx context.Context, p muc.Presence) {
	if p.Type == "unavailable" || p.JID == "" {
		return
	}

	player := model.NormalizePlayer(muc.Bare(p.JID))
	s.logger.Debug("user joined", "jid", player, "nick", p.Nick, "room", p.Room)

	if !s.nickMatches(ctx, player, p.Nick) {
		s.logger.Info("nick does not match JID", "jid", player, "nick", p.Nick)
		if err := s.transport.SetRole(ctx, p.Room, p.Nick, muc.RoleNone, ui.ImpersonationReason); err != nil {
			s.logger.Warn("kicking for JID nick mismatch failed", "nick", p.Nick, "error", err)
		}
		return
	}

	mute, active, err := s.events.ActiveMute(ctx, player, s.clock())
	if err != nil {
		s.logger.Error("query active mute", "player", player, "error", err)
		return
	}

	switch {
	case active && p.Role == muc.RoleParticipant:
		if err := s.transport.SetRole(ctx, p.Room, p.Nick, muc.RoleVisitor, mute.Reason); err != nil {
			s.logger.Error("muting on join failed", "nick", p.Nick, "jid", player, "error", err)
		}
	case !active && p.Role == muc.RoleVisitor:
		if err := s.transport.SetRole(ctx, p.Room, p.Nick, muc.RoleParticipant, ""); err != nil {
			s.logger.Error("unmuting on join failed", "nick", p.Nick, "jid", player, "error", err)
		}
	}
}

func (s *Service) nickMatches(ctx context.Context, player, nick string) bool {
	if strings.EqualFold(muc.Localpart(player), nick) {
		return true
	}
	if player == s.botJID {
		return true
	}
	ok, err := s.allowlist.IsWhitelisted(ctx, player)
	if err != nil {
		s.logger.Error("check nick whitelist", "player", player, "error", err)
		return true
	}
	return ok
}

// unmuteExpired restores the player's role once their mute has run out.
// The scheduler guarantees it never runs for a cancelled timer.
func (s *Service) unmuteExpired(ctx context.Context, player string, _ time.Time) {
	for _, room := range s.rooms {
		nick, ok := muc.FindNick(s.transport, room, muc.Localpart(player))
		if !ok {
			continue
		}
		if err := s.transport.SetRole(ctx, room, nick, muc.RoleParticipant, ""); err != nil {
			s.logger.Error("automatic unmute failed", "nick", nick, "room", room, "error", err)
		}
	}
}

func (s *Service) reply(ctx context.Context, body string) {
	if err := s.transport.SendGroupchat(ctx, s.commandRoom, body); err != nil {
		s.logger.Error("send reply to command room", "error", err)
	}
}
