package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/0ad/lobby-bots/internal/domain/model"
)

// EventsRepo is the append-only store for moderation events. Rows are
// inserted exactly once and never updated or deleted; whether a mute is
// active is derived at query time.
type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) Insert(ctx context.Context, event model.ModerationEvent) error {
	if event.Type == "" || event.Player == "" {
		return fmt.Errorf("invalid moderation event")
	}

	var muteEnd interface{}
	if event.MuteEnd != nil {
		muteEnd = event.MuteEnd.UTC()
	}

	eventDate := event.EventDate
	if eventDate.IsZero() {
		eventDate = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO moderation_events (event_date, event_type, moderator, player, reason, mute_end)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		eventDate.UTC(),
		string(event.Type),
		event.Moderator,
		model.NormalizePlayer(event.Player),
		event.Reason,
		muteEnd,
	)
	if err != nil {
		return fmt.Errorf("insert moderation event: %w", err)
	}
	return nil
}

// activeMuteFilter mirrors model.ModerationEvent.ActiveAt: the instant
// lies in [event_date, mute_end) and no unmute for the same player falls
// into that window.
const activeMuteFilter = `
	m.event_type = 'mute'
	AND m.mute_end IS NOT NULL
	AND m.event_date <= $1
	AND $1 < m.mute_end
	AND NOT EXISTS (
		SELECT 1
		FROM moderation_events u
		WHERE u.event_type = 'unmute'
		  AND u.player = m.player
		  AND u.event_date >= m.event_date
		  AND u.event_date < m.mute_end
	)
`

// ActiveMute returns the latest active mute for a player, if any.
func (r *EventsRepo) ActiveMute(ctx context.Context, player string, now time.Time) (model.ModerationEvent, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT m.id, m.event_date, m.moderator, m.player, m.reason, m.mute_end
		FROM moderation_events m
		WHERE `+activeMuteFilter+`
		  AND m.player = $2
		ORDER BY m.mute_end DESC
		LIMIT 1
	`, now.UTC(), model.NormalizePlayer(player))

	event, err := scanMute(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ModerationEvent{}, false, nil
		}
		return model.ModerationEvent{}, false, fmt.Errorf("query active mute: %w", err)
	}
	return event, true, nil
}

// ActiveMutes returns all currently active mutes ordered by mute end.
// Used to rebuild the timer set on startup and after reconnects.
func (r *EventsRepo) ActiveMutes(ctx context.Context, now time.Time) ([]model.ModerationEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (m.player)
		       m.id, m.event_date, m.moderator, m.player, m.reason, m.mute_end
		FROM moderation_events m
		WHERE `+activeMuteFilter+`
		ORDER BY m.player, m.mute_end DESC
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("query active mutes: %w", err)
	}
	defer rows.Close()

	var mutes []model.ModerationEvent
	for rows.Next() {
		event, err := scanMute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active mute: %w", err)
		}
		mutes = append(mutes, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active mutes: %w", err)
	}
	return mutes, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMute(row rowScanner) (model.ModerationEvent, error) {
	event := model.ModerationEvent{Type: model.EventMute}
	var muteEnd time.Time
	if err := row.Scan(
		&event.ID,
		&event.EventDate,
		&event.Moderator,
		&event.Player,
		&event.Reason,
		&muteEnd,
	); err != nil {
		return model.ModerationEvent{}, err
	}
	muteEnd = muteEnd.UTC()
	event.EventDate = event.EventDate.UTC()
	event.MuteEnd = &muteEnd
	return event, nil
}
