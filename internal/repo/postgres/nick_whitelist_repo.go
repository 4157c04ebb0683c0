package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/0ad/lobby-bots/internal/domain/model"
)

// NickWhitelistRepo stores identities permitted to use a room nickname
// that differs from their JID local part.
type NickWhitelistRepo struct {
	db *sql.DB
}

func NewNickWhitelistRepo(db *sql.DB) *NickWhitelistRepo {
	return &NickWhitelistRepo{db: db}
}

func (r *NickWhitelistRepo) IsWhitelisted(ctx context.Context, jid string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM jid_nick_whitelist WHERE jid = $1)
	`, model.NormalizePlayer(jid)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check nick whitelist: %w", err)
	}
	return exists, nil
}
