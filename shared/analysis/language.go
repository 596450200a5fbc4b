package analysis

import (
	"unicode"

	"github.com/RadhiFadlillah/whatlanggo"

	"comment-analyzer/internal/models"
)

var languageOrder = []string{models.LangEnglish, models.LangRussian, models.LangOther}

// DetectLanguage assigns a comment to en, ru or other.
func (a *Aggregator) DetectLanguage(c models.Comment) string {
	return a.detect(c.LanguageHint, normalize(c.Text))
}

func (a *Aggregator) detect(hint string, n normalized) string {
	switch hint {
	case models.LangEnglish, models.LangRussian:
		return hint
	}

	var latin, cyrillic, letters int
	for _, r := range n.clean {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	if letters == 0 {
		return models.LangOther
	}
	if cyrillic*2 > letters {
		return models.LangRussian
	}
	if latin > 0 {
		stop := a.stopwords[models.LangEnglish]
		for _, tok := range n.tokens {
			if _, ok := stop[tok]; ok {
				return models.LangEnglish
			}
		}
	}

	switch whatlanggo.Detect(n.clean).Lang.Iso6391() {
	case "en":
		return models.LangEnglish
	case "ru":
		return models.LangRussian
	default:
		return models.LangOther
	}
}

// LanguageDistribution returns the share of comments per language in whole
// percent. Empty input yields an empty map.
func (a *Aggregator) LanguageDistribution(comments []models.Comment) map[string]int {
	return a.languageDistribution(a.prepare(comments))
}

func (a *Aggregator) languageDistribution(docs []document) map[string]int {
	dist := make(map[string]int)
	if len(docs) == 0 {
		return dist
	}

	counts := make(map[string]int)
	for _, d := range docs {
		counts[d.lang]++
	}

	var present []string
	var values []int
	for _, lang := range languageOrder {
		if counts[lang] > 0 {
			present = append(present, lang)
			values = append(values, counts[lang])
		}
	}

	residual := argmax(values)
	for i, lang := range present {
		if lang == models.LangOther {
			residual = i
		}
	}

	for i, pct := range percentages(values, len(docs), residual) {
		dist[present[i]] = pct
	}
	return dist
}

func mainLanguage(docs []document) string {
	if len(docs) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, d := range docs {
		counts[d.lang]++
	}
	best := ""
	for _, lang := range languageOrder {
		if best == "" || counts[lang] > counts[best] {
			best = lang
		}
	}
	return best
}
