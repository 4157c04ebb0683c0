package profanity

import (
	"fmt"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/de"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/aaaton/golem/v4/dicts/es"
	"github.com/aaaton/golem/v4/dicts/fr"
	"github.com/aaaton/golem/v4/dicts/it"
	"github.com/aaaton/golem/v4/dicts/sv"
)

// GolemLemmatizer lemmatizes tokens with golem's dictionary packs.
// Languages without a pack pass tokens through unchanged.
type GolemLemmatizer struct {
	byLanguage map[string]*golem.Lemmatizer
}

func NewGolemLemmatizer() (*GolemLemmatizer, error) {
	packs := map[string]golem.LanguagePack{
		"en": en.New(),
		"de": de.New(),
		"fr": fr.New(),
		"es": es.New(),
		"it": it.New(),
		"sv": sv.New(),
	}

	byLanguage := make(map[string]*golem.Lemmatizer, len(packs))
	for lang, pack := range packs {
		lemmatizer, err := golem.New(pack)
		if err != nil {
			return nil, fmt.Errorf("load %s lemmatizer: %w", lang, err)
		}
		byLanguage[lang] = lemmatizer
	}
	return &GolemLemmatizer{byLanguage: byLanguage}, nil
}

func (g *GolemLemmatizer) Lemma(token, language string) string {
	lemmatizer, ok := g.byLanguage[language]
	if !ok {
		return token
	}
	return lemmatizer.Lemma(token)
}
