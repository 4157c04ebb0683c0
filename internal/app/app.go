// Package app wires configuration, storage, the chat transport and the
// services into the runnable bots.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0ad/lobby-bots/internal/config"
	"github.com/0ad/lobby-bots/internal/infra/xmppc"
	"github.com/0ad/lobby-bots/internal/muc"
	"github.com/0ad/lobby-bots/internal/reconnect"
	"github.com/0ad/lobby-bots/internal/repo/postgres"
	"github.com/0ad/lobby-bots/internal/services/moderation"
	"github.com/0ad/lobby-bots/internal/services/profanity"
)

// App is the moderation bot. It owns the long-lived pieces: database,
// timer scheduler and the detection models. The XMPP session and the
// services bound to it are rebuilt on every reconnect.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	db            *sql.DB
	events        *postgres.EventsRepo
	moderators    *postgres.ModeratorsRepo
	nickWhitelist *postgres.NickWhitelistRepo
	profanityRepo *postgres.ProfanityRepo

	sched      *moderation.Scheduler
	detector   *profanity.LinguaDetector
	lemmatizer *profanity.GolemLemmatizer
	reconnects *reconnect.Controller
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if cfg.CommandRoom == "" {
		return nil, fmt.Errorf("COMMAND_ROOM is required")
	}
	if len(cfg.Rooms) == 0 {
		return nil, fmt.Errorf("ROOMS is required")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	lemmatizer, err := profanity.NewGolemLemmatizer()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load lemmatizers: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		events:        postgres.NewEventsRepo(db),
		moderators:    postgres.NewModeratorsRepo(db),
		nickWhitelist: postgres.NewNickWhitelistRepo(db),
		profanityRepo: postgres.NewProfanityRepo(db),
		sched:         moderation.NewScheduler(nil),
		detector:      profanity.NewLinguaDetector(),
		lemmatizer:    lemmatizer,
		reconnects:    reconnect.NewController(logger),
	}, nil
}

func (a *App) Close() error {
	a.sched.CancelAll()
	return a.db.Close()
}

// Run keeps the bot connected until the context is cancelled or the
// login fails permanently.
func (a *App) Run(ctx context.Context) error {
	err := a.reconnects.Run(ctx, a.session)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// session runs one full connection: join all rooms, resynchronize the
// timers from the event log and pump events until the connection drops.
// All timers are cancelled on the way out so none can act through a
// dead transport.
func (a *App) session(ctx context.Context, established func()) error {
	client, err := xmppc.Connect(a.cfg, a.logger)
	if err != nil {
		if errors.Is(err, muc.ErrAuthFailed) {
			return reconnect.Fatal(err)
		}
		return err
	}
	defer client.Close()
	defer a.sched.CancelAll()

	rooms := a.cfg.RoomJIDs()
	commandRoom := a.cfg.CommandRoomJID()
	for _, room := range append(rooms, commandRoom) {
		if err := client.JoinRoom(ctx, room, a.cfg.Nick); err != nil {
			return err
		}
	}
	established()
	a.logger.Info("connected", "rooms", len(rooms), "command_room", commandRoom)

	mod := moderation.NewService(moderation.Deps{
		Events:        a.events,
		Moderators:    a.moderators,
		NickAllowlist: a.nickWhitelist,
		Transport:     client,
		Scheduler:     a.sched,
		Logger:        a.logger,
		BotJID:        muc.Bare(a.cfg.JID),
		Domain:        a.cfg.Domain(),
		Rooms:         rooms,
		CommandRoom:   commandRoom,
	})
	prof := profanity.NewService(a.profanityRepo, a.profanityRepo, a.detector, a.lemmatizer, a.logger, nil)

	if err := mod.Recover(ctx); err != nil {
		return fmt.Errorf("resynchronize timers: %w", err)
	}

	r := &router{
		logger:      a.logger,
		transport:   client,
		moderation:  mod,
		profanity:   prof,
		terms:       a.profanityRepo,
		botNick:     a.cfg.Nick,
		commandRoom: commandRoom,
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-client.Events():
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			switch v := event.(type) {
			case muc.Message:
				r.handleMessage(ctx, v)
			case muc.Presence:
				mod.HandlePresence(ctx, v)
			case muc.Disconnected:
				return v.Err
			}
		}
	}
}
