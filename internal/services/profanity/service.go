// Package profanity implements the detection pipeline: language
// detection, tokenization, lemmatization, term matching and the
// escalation policy for repeated incidents.
package profanity

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/0ad/lobby-bots/internal/domain/model"
)

// Escalation policy constants. At the threshold the automatic mute
// duration starts at the base and grows geometrically, bounded by the
// cap.
const (
	IncidentWindow = 90 * 24 * time.Hour
	MuteThreshold  = 3
	BaseMute       = 5 * time.Minute
	MuteGrowth     = 4
	MuteCap        = 7 * 24 * time.Hour
)

// FallbackLanguage is assumed when detection is not confident.
const FallbackLanguage = "en"

// TermStore provides the per-language profanity term sets.
type TermStore interface {
	Languages(ctx context.Context) ([]string, error)
	Terms(ctx context.Context, languages []string) (map[string][]string, error)
	TermsForLanguage(ctx context.Context, language string) ([]string, error)
}

// IncidentStore records incidents and counts them per player within the
// rolling window.
type IncidentStore interface {
	InsertIncident(ctx context.Context, incident model.ProfanityIncident) error
	CountIncidentsSince(ctx context.Context, player string, since time.Time) (int, error)
}

// Detector guesses the languages of a message. The result is ordered,
// deduplicated and always contains the fallback language.
type Detector interface {
	Detect(text string) []string
}

// Lemmatizer reduces a token to its base form under a language.
// Unknown languages and unknown tokens pass through unchanged.
type Lemmatizer interface {
	Lemma(token, language string) string
}

// Outcome describes what the pipeline decided for one message. The
// caller performs the resulting actions.
type Outcome struct {
	Matched      bool
	MatchedTerms []string
	Languages    []string
	Warn         bool
	Mute         bool
	MuteDuration time.Duration
}

type Service struct {
	terms      TermStore
	incidents  IncidentStore
	detector   Detector
	lemmatizer Lemmatizer
	logger     *slog.Logger
	clock      func() time.Time
}

func NewService(terms TermStore, incidents IncidentStore, detector Detector, lemmatizer Lemmatizer, logger *slog.Logger, clock func() time.Time) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		terms:      terms,
		incidents:  incidents,
		detector:   detector,
		lemmatizer: lemmatizer,
		logger:     logger,
		clock:      clock,
	}
}

// Check runs the pipeline over a room message. onlineNicks are the
// nicknames currently present in the room; tokens matching them are
// never flagged. A message without a term match exits without side
// effects.
func (s *Service) Check(ctx context.Context, room, player, body string, onlineNicks []string) (Outcome, error) {
	languages := s.detector.Detect(body)

	tokens := tokenize(body, onlineNicks)
	if len(tokens) == 0 {
		return Outcome{}, nil
	}

	termsByLang, err := s.terms.Terms(ctx, languages)
	if err != nil {
		return Outcome{}, err
	}

	termSet := make(map[string]struct{})
	for _, terms := range termsByLang {
		for _, term := range terms {
			termSet[strings.ToLower(term)] = struct{}{}
		}
	}
	if len(termSet) == 0 {
		return Outcome{}, nil
	}

	var matched []string
	seen := make(map[string]struct{})
	for _, token := range tokens {
		candidates := []string{strings.ToLower(token)}
		for _, lang := range languages {
			lemma := strings.ToLower(s.lemmatizer.Lemma(token, lang))
			if lemma != candidates[0] {
				candidates = append(candidates, lemma)
			}
		}
		for _, candidate := range candidates {
			if _, ok := termSet[candidate]; !ok {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			matched = append(matched, candidate)
		}
	}
	if len(matched) == 0 {
		return Outcome{}, nil
	}

	now := s.clock()
	incident := model.ProfanityIncident{
		Timestamp:         now,
		Player:            player,
		Room:              room,
		OffendingContent:  body,
		MatchedTerms:      matched,
		DetectedLanguages: languages,
	}
	if err := s.incidents.InsertIncident(ctx, incident); err != nil {
		return Outcome{}, err
	}
	s.logger.Info("profanity incident", "room", room, "player", player, "terms", matched)

	count, err := s.incidents.CountIncidentsSince(ctx, player, now.Add(-IncidentWindow))
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Matched: true, MatchedTerms: matched, Languages: languages}
	if count < MuteThreshold {
		outcome.Warn = true
		return outcome, nil
	}
	outcome.Mute = true
	outcome.MuteDuration = escalatedDuration(count)
	return outcome, nil
}

// escalatedDuration computes min(base * growth^(count-threshold), cap).
func escalatedDuration(count int) time.Duration {
	d := BaseMute
	for i := 0; i < count-MuteThreshold; i++ {
		d *= MuteGrowth
		if d >= MuteCap {
			return MuteCap
		}
	}
	if d > MuteCap {
		return MuteCap
	}
	return d
}

// tokenize splits a message into words, dropping pure punctuation and
// tokens that exactly match an online nickname, so usernames are never
// flagged.
func tokenize(body string, onlineNicks []string) []string {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, "'")
		if token == "" {
			continue
		}
		if matchesNick(token, onlineNicks) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func matchesNick(token string, nicks []string) bool {
	for _, nick := range nicks {
		if strings.EqualFold(token, nick) {
			return true
		}
	}
	return false
}
