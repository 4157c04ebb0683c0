package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0ad/lobby-bots/internal/domain/model"
)

// ModeratorsRepo answers whether an identity may issue moderation
// commands. Looked up on every command, never cached.
type ModeratorsRepo struct {
	db *sql.DB
}

func NewModeratorsRepo(db *sql.DB) *ModeratorsRepo {
	return &ModeratorsRepo{db: db}
}

func (r *ModeratorsRepo) IsModerator(ctx context.Context, jid string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM moderators WHERE jid = $1)
	`, model.NormalizePlayer(jid)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check moderator: %w", err)
	}
	return exists, nil
}
