package analysis

import (
	"strings"

	"comment-analyzer/internal/models"
)

// ExtractPhrases returns recurring 2- and 3-word sequences. N-grams are built
// per comment and never span two comments.
func (a *Aggregator) ExtractPhrases(comments []models.Comment) []models.Phrase {
	return a.extractPhrases(a.prepare(comments))
}

func (a *Aggregator) extractPhrases(docs []document) []models.Phrase {
	freq := make(map[string]int)
	for _, d := range docs {
		for size := 2; size <= 3; size++ {
			for i := 0; i+size <= len(d.tokens); i++ {
				gram := d.tokens[i : i+size]
				if a.allStop(gram) {
					continue
				}
				freq[strings.Join(gram, " ")]++
			}
		}
	}

	minFreq := max(a.opts.MinPhraseFrequency, 1)
	phrases := make([]models.Phrase, 0, len(freq))
	for text, n := range freq {
		if n < minFreq {
			continue
		}
		phrases = append(phrases, models.Phrase{Phrase: text, Frequency: n})
	}
	sortByFrequency(phrases, func(p models.Phrase) (string, int) { return p.Phrase, p.Frequency })

	return limit(phrases, a.opts.PhraseLimit)
}

func (a *Aggregator) allStop(gram []string) bool {
	for _, tok := range gram {
		if _, ok := a.allStopwords[tok]; !ok {
			return false
		}
	}
	return true
}
