package model

import "time"

// ProfanityIncident is an immutable audit record written whenever the
// profanity pipeline matches a term in a room message.
type ProfanityIncident struct {
	ID                int64
	Timestamp         time.Time
	Player            string
	Room              string
	OffendingContent  string
	MatchedTerms      []string
	DetectedLanguages []string
}
