package profanity

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// supportedLanguages are the languages the pipeline can detect and
// lemmatize. Term sets are keyed by their ISO 639-1 codes.
var supportedLanguages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Swedish,
}

// NormalizeLanguage resolves a language name ("german") or ISO 639-1
// code ("de") to the code used as term-set key. Unknown input comes
// back lowercased so lookups fail loudly instead of silently matching.
func NormalizeLanguage(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, lang := range supportedLanguages {
		code := strings.ToLower(lang.IsoCode639_1().String())
		if normalized == code || normalized == strings.ToLower(lang.String()) {
			return code
		}
	}
	return normalized
}

// LinguaDetector detects message languages with lingua. The candidate
// set is restricted to the languages the lemmatizer has dictionaries
// for, which keeps detection fast and avoids exotic false positives.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

func NewLinguaDetector() *LinguaDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(supportedLanguages...).
		Build()
	return &LinguaDetector{detector: detector}
}

// Detect returns the ordered, deduplicated candidate languages for the
// text: the detector's best guess if it has one, then the fallback.
func (d *LinguaDetector) Detect(text string) []string {
	languages := make([]string, 0, 2)
	if lang, ok := d.detector.DetectLanguageOf(text); ok {
		languages = append(languages, strings.ToLower(lang.IsoCode639_1().String()))
	}
	for _, lang := range languages {
		if lang == FallbackLanguage {
			return languages
		}
	}
	return append(languages, FallbackLanguage)
}
