package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/0ad/lobby-bots/internal/domain/model"
)

// ProfanityRepo stores per-language profanity terms and the incident
// audit log.
type ProfanityRepo struct {
	db *sql.DB
}

func NewProfanityRepo(db *sql.DB) *ProfanityRepo {
	return &ProfanityRepo{db: db}
}

// Languages lists the languages for which terms are configured.
func (r *ProfanityRepo) Languages(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT language FROM profanity_terms ORDER BY language
	`)
	if err != nil {
		return nil, fmt.Errorf("list profanity languages: %w", err)
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, fmt.Errorf("scan profanity language: %w", err)
		}
		languages = append(languages, lang)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profanity languages: %w", err)
	}
	return languages, nil
}

// Terms returns the term sets for the given languages, keyed by
// language. Languages without terms are absent from the result.
func (r *ProfanityRepo) Terms(ctx context.Context, languages []string) (map[string][]string, error) {
	if len(languages) == 0 {
		return map[string][]string{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT language, term
		FROM profanity_terms
		WHERE language = ANY($1)
		ORDER BY language, term
	`, pq.Array(languages))
	if err != nil {
		return nil, fmt.Errorf("query profanity terms: %w", err)
	}
	defer rows.Close()

	terms := make(map[string][]string)
	for rows.Next() {
		var lang, term string
		if err := rows.Scan(&lang, &term); err != nil {
			return nil, fmt.Errorf("scan profanity term: %w", err)
		}
		terms[lang] = append(terms[lang], term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profanity terms: %w", err)
	}
	return terms, nil
}

// TermsForLanguage returns the terms of a single language.
func (r *ProfanityRepo) TermsForLanguage(ctx context.Context, language string) ([]string, error) {
	terms, err := r.Terms(ctx, []string{language})
	if err != nil {
		return nil, err
	}
	return terms[language], nil
}

// InsertIncident appends a profanity incident to the audit log.
func (r *ProfanityRepo) InsertIncident(ctx context.Context, incident model.ProfanityIncident) error {
	timestamp := incident.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profanity_incidents
			(timestamp, player, room, offending_content, matched_terms, detected_languages)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		timestamp.UTC(),
		model.NormalizePlayer(incident.Player),
		incident.Room,
		incident.OffendingContent,
		pq.StringArray(incident.MatchedTerms),
		pq.StringArray(incident.DetectedLanguages),
	)
	if err != nil {
		return fmt.Errorf("insert profanity incident: %w", err)
	}
	return nil
}

// CountIncidentsSince counts a player's incidents in the trailing
// window used by the escalation policy.
func (r *ProfanityRepo) CountIncidentsSince(ctx context.Context, player string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM profanity_incidents
		WHERE player = $1
		  AND timestamp >= $2
	`, model.NormalizePlayer(player), since.UTC()).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count profanity incidents: %w", err)
	}
	return count, nil
}
