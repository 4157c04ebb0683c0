// Package gamelist keeps the registry of games hosted in the lobby. A
// game is keyed by the full JID of the hosting player; entries are
// evicted least recently used when hosts vanish without unregistering.
package gamelist

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxGames bounds the registry. Stale entries from crashed hosts get
// evicted before the table grows without limit.
const maxGames = 128

var (
	ErrNotRegistered     = errors.New("game not registered")
	ErrAlreadyRegistered = errors.New("game already registered")
)

// State is the lifecycle phase a hosted game reports.
type State string

const (
	StateInit    State = "init"
	StateWaiting State = "waiting"
	StateRunning State = "running"
)

// Game is the lobby-visible description of one hosted game.
type Game struct {
	HostJID    string
	Name       string
	State      State
	Players    []string
	NumPlayers int
	MaxPlayers int
	StartTime  time.Time
}

type Games struct {
	mu     sync.Mutex
	games  *lru.Cache[string, Game]
	logger *slog.Logger
}

func New(logger *slog.Logger) (*Games, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, Game](maxGames)
	if err != nil {
		return nil, err
	}
	return &Games{games: cache, logger: logger}, nil
}

// Register adds a game for the host. A host can only run one game at a
// time.
func (g *Games) Register(hostJID string, game Game) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.games.Get(hostJID); ok {
		return ErrAlreadyRegistered
	}
	game.HostJID = hostJID
	if game.State == "" {
		game.State = StateInit
	}
	if game.StartTime.IsZero() {
		game.StartTime = time.Now().UTC()
	}
	if evicted := g.games.Add(hostJID, game); evicted {
		g.logger.Warn("game list full, evicted oldest entry")
	}
	return nil
}

// Remove drops the game registered by the host.
func (g *Games) Remove(hostJID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ok := g.games.Remove(hostJID); !ok {
		return ErrNotRegistered
	}
	return nil
}

// ChangeState updates the phase and player roster of the host's game.
func (g *Games) ChangeState(hostJID string, state State, players []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	game, ok := g.games.Get(hostJID)
	if !ok {
		return ErrNotRegistered
	}
	game.State = state
	if players != nil {
		game.Players = players
		game.NumPlayers = len(players)
	}
	g.games.Add(hostJID, game)
	return nil
}

// Get returns the game hosted by the given JID.
func (g *Games) Get(hostJID string) (Game, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.games.Get(hostJID)
}

// List returns all registered games, oldest first.
func (g *Games) List() []Game {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := g.games.Keys()
	games := make([]Game, 0, len(keys))
	for _, key := range keys {
		if game, ok := g.games.Peek(key); ok {
			games = append(games, game)
		}
	}
	return games
}

// RemoveAllForPlayer drops every game the player hosts or plays in.
// Used when a player disconnects from the lobby.
func (g *Games) RemoveAllForPlayer(nick string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, key := range g.games.Keys() {
		game, ok := g.games.Peek(key)
		if !ok {
			continue
		}
		if hostNick(game.HostJID) == nick || containsPlayer(game.Players, nick) {
			g.games.Remove(key)
			removed++
		}
	}
	return removed
}

func (g *Games) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.games.Len()
}

func hostNick(jid string) string {
	for i := 0; i < len(jid); i++ {
		if jid[i] == '@' {
			return jid[:i]
		}
	}
	return jid
}

func containsPlayer(players []string, nick string) bool {
	for _, p := range players {
		if p == nick {
			return true
		}
	}
	return false
}
