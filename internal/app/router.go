package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/0ad/lobby-bots/internal/muc"
	"github.com/0ad/lobby-bots/internal/services/commands"
	"github.com/0ad/lobby-bots/internal/services/moderation"
	"github.com/0ad/lobby-bots/internal/services/profanity"
	"github.com/0ad/lobby-bots/internal/ui"
)

// router dispatches room messages of one session: moderator commands
// from the command room, profanity checks everywhere else.
type router struct {
	logger      *slog.Logger
	transport   muc.Transport
	moderation  *moderation.Service
	profanity   *profanity.Service
	terms       profanity.TermStore
	botNick     string
	commandRoom string
}

func (r *router) handleMessage(ctx context.Context, msg muc.Message) {
	// Replayed room history must never trigger actions again.
	if msg.Delayed {
		return
	}

	if msg.Room == r.commandRoom {
		r.handleCommand(ctx, msg)
		return
	}
	r.handleRoomMessage(ctx, msg)
}

func (r *router) handleCommand(ctx context.Context, msg muc.Message) {
	text, ok := commands.Match(msg.Body, r.botNick)
	if !ok {
		return
	}

	sender, ok := r.transport.OccupantJID(msg.Room, msg.Nick)
	if !ok {
		r.logger.Warn("command from unresolved sender ignored", "nick", msg.Nick)
		return
	}
	isModerator, err := r.moderation.IsModerator(ctx, sender)
	if err != nil {
		r.logger.Error("check moderator status", "jid", sender, "error", err)
		return
	}
	if !isModerator {
		r.logger.Warn("command from non-moderator ignored", "jid", sender, "nick", msg.Nick)
		return
	}

	cmd, reply := commands.Parse(text)
	if reply != "" {
		r.reply(ctx, reply)
		return
	}

	r.logger.Info("executing command", "command", string(cmd.Kind), "moderator", sender)
	switch cmd.Kind {
	case commands.KindMute:
		r.moderation.Mute(ctx, r.moderation.PlayerJID(cmd.User), cmd.Duration, sender, cmd.Reason)
	case commands.KindUnmute:
		r.moderation.Unmute(ctx, r.moderation.PlayerJID(cmd.User), sender, cmd.Reason)
	case commands.KindKick:
		r.moderation.Kick(ctx, r.moderation.PlayerJID(cmd.User), sender, cmd.Reason)
	case commands.KindMuteList:
		r.moderation.MuteList(ctx)
	case commands.KindProfanityList:
		r.profanityList(ctx, cmd.Lang)
	}
}

func (r *router) profanityList(ctx context.Context, lang string) {
	if strings.EqualFold(lang, "languages") {
		languages, err := r.terms.Languages(ctx)
		if err != nil {
			r.logger.Error("query profanity languages", "error", err)
			return
		}
		r.reply(ctx, ui.ProfanityLanguages(languages))
		return
	}

	lang = profanity.NormalizeLanguage(lang)
	terms, err := r.terms.TermsForLanguage(ctx, lang)
	if err != nil {
		r.logger.Error("query profanity terms", "language", lang, "error", err)
		return
	}
	r.reply(ctx, ui.ProfanityTerms(lang, terms))
}

// handleRoomMessage runs the profanity pipeline over a monitored room
// message and carries out the warn or mute it decides.
func (r *router) handleRoomMessage(ctx context.Context, msg muc.Message) {
	player, ok := r.transport.OccupantJID(msg.Room, msg.Nick)
	if !ok {
		player = r.moderation.PlayerJID(msg.Nick)
	}

	occupants := r.transport.Occupants(msg.Room)
	nicks := make([]string, 0, len(occupants))
	for _, occ := range occupants {
		nicks = append(nicks, occ.Nick)
	}

	outcome, err := r.profanity.Check(ctx, msg.Room, muc.Bare(player), msg.Body, nicks)
	if err != nil {
		r.logger.Error("profanity check", "room", msg.Room, "nick", msg.Nick, "error", err)
		return
	}

	switch {
	case outcome.Warn:
		if err := r.transport.SendGroupchat(ctx, msg.Room, ui.ProfanityWarning(msg.Nick)); err != nil {
			r.logger.Error("send profanity warning", "room", msg.Room, "error", err)
		}
	case outcome.Mute:
		r.moderation.AutoMute(ctx, muc.Bare(player), outcome.MuteDuration, msg.Body)
	}
}

func (r *router) reply(ctx context.Context, body string) {
	if err := r.transport.SendGroupchat(ctx, r.commandRoom, body); err != nil {
		r.logger.Error("send reply to command room", "error", err)
	}
}
