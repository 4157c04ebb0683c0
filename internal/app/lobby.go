package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/0ad/lobby-bots/internal/config"
	"github.com/0ad/lobby-bots/internal/infra/xmppc"
	"github.com/0ad/lobby-bots/internal/muc"
	"github.com/0ad/lobby-bots/internal/reconnect"
	"github.com/0ad/lobby-bots/internal/repo/redisrepo"
	"github.com/0ad/lobby-bots/internal/services/gamelist"
	"github.com/0ad/lobby-bots/internal/ui"
)

// gameListCooldown throttles the "games" reply per room.
const gameListCooldown = 30 * time.Second

// LobbyApp is the game-listing bot. Hosts announce their games in the
// lobby rooms and anyone can ask for the current list.
type LobbyApp struct {
	cfg    config.Config
	logger *slog.Logger

	games      *gamelist.Games
	cooldown   *redisrepo.Cooldown
	reconnects *reconnect.Controller
}

func NewLobby(cfg config.Config, logger *slog.Logger) (*LobbyApp, error) {
	if len(cfg.Rooms) == 0 {
		return nil, fmt.Errorf("ROOMS is required")
	}

	games, err := gamelist.New(logger)
	if err != nil {
		return nil, fmt.Errorf("create game registry: %w", err)
	}

	return &LobbyApp{
		cfg:        cfg,
		logger:     logger,
		games:      games,
		cooldown:   redisrepo.NewCooldown(cfg.RedisAddr, gameListCooldown),
		reconnects: reconnect.NewController(logger),
	}, nil
}

func (a *LobbyApp) Close() error {
	return a.cooldown.Close()
}

func (a *LobbyApp) Run(ctx context.Context) error {
	err := a.reconnects.Run(ctx, a.session)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *LobbyApp) session(ctx context.Context, established func()) error {
	client, err := xmppc.Connect(a.cfg, a.logger)
	if err != nil {
		if errors.Is(err, muc.ErrAuthFailed) {
			return reconnect.Fatal(err)
		}
		return err
	}
	defer client.Close()

	for _, room := range a.cfg.RoomJIDs() {
		if err := client.JoinRoom(ctx, room, a.cfg.Nick); err != nil {
			return err
		}
	}
	established()
	a.logger.Info("lobby bot connected", "rooms", len(a.cfg.Rooms))

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
				a.handleMessage(ctx, client, v)
			case muc.Presence:
				a.handlePresence(v)
			case muc.Disconnected:
				return v.Err
			}
		}
	}
}

func (a *LobbyApp) handleMessage(ctx context.Context, t muc.Transport, msg muc.Message) {
	if msg.Delayed {
		return
	}

	body := strings.TrimSpace(msg.Body)
	if strings.EqualFold(body, "games") {
		a.listGames(ctx, t, msg.Room)
		return
	}
	if !strings.HasPrefix(body, "!") {
		return
	}

	hostJID, ok := t.OccupantJID(msg.Room, msg.Nick)
	if !ok {
		a.logger.Warn("game command from unresolved sender ignored", "nick", msg.Nick)
		return
	}

	tokens := strings.Fields(body)
	switch strings.ToLower(tokens[0]) {
	case "!hostgame":
		if len(tokens) < 2 {
			return
		}
		name := strings.Join(tokens[1:], " ")
		err := a.games.Register(hostJID, gamelist.Game{Name: name, State: gamelist.StateWaiting})
		if errors.Is(err, gamelist.ErrAlreadyRegistered) {
			a.logger.Info("host already has a registered game", "host", hostJID)
			return
		}
		a.logger.Info("game registered", "host", hostJID, "name", name)
	case "!startgame":
		if err := a.games.ChangeState(hostJID, gamelist.StateRunning, nil); err != nil {
			a.logger.Info("no game to start", "host", hostJID)
		}
	case "!unhostgame":
		if err := a.games.Remove(hostJID); err != nil {
			a.logger.Info("no game to unregister", "host", hostJID)
		}
	}
}

func (a *LobbyApp) listGames(ctx context.Context, t muc.Transport, room string) {
	allowed, err := a.cooldown.Allow(ctx, room)
	if err != nil {
		a.logger.Error("game list cooldown", "room", room, "error", err)
		return
	}
	if !allowed {
		return
	}

	games := a.games.List()
	names := make([]string, 0, len(games))
	for _, game := range games {
		names = append(names, game.Name)
	}
	if err := t.SendGroupchat(ctx, room, ui.GameList(names)); err != nil {
		a.logger.Error("send game list", "room", room, "error", err)
	}
}

// handlePresence drops every game of a player who left, matching the
// lobby behaviour of vanishing games when their host disconnects.
func (a *LobbyApp) handlePresence(p muc.Presence) {
	if p.Type != "unavailable" {
		return
	}
	if removed := a.games.RemoveAllForPlayer(p.Nick); removed > 0 {
		a.logger.Info("removed games of offline player", "nick", p.Nick, "games", removed)
	}
}
