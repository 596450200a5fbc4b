package analysis

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"comment-analyzer/internal/models"
)

const minKeywordRunes = 3

// Background is a reference corpus of document frequencies used to weight
// keywords. It is read-only once built.
type Background struct {
	docs    int
	docFreq map[string]int
}

// NewBackground builds a corpus from raw documents.
func NewBackground(docs []string) *Background {
	bg := &Background{docFreq: make(map[string]int)}
	for _, doc := range docs {
		bg.add(doc)
	}
	return bg
}

// LoadBackground reads a corpus file with one document per line.
func LoadBackground(path string) (*Background, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open background corpus: %w", err)
	}
	defer f.Close()

	bg := &Background{docFreq: make(map[string]int)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		bg.add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read background corpus: %w", err)
	}
	return bg, nil
}

func (bg *Background) add(doc string) {
	bg.docs++
	seen := make(map[string]struct{})
	for _, tok := range normalize(doc).tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		bg.docFreq[tok]++
	}
}

// Size returns the number of documents in the corpus.
func (bg *Background) Size() int {
	if bg == nil {
		return 0
	}
	return bg.docs
}

func (bg *Background) idf(word string) float64 {
	return math.Log(float64(1+bg.docs)/float64(1+bg.docFreq[word])) + 1
}

// ExtractKeywords returns the most frequent content words across comments.
func (a *Aggregator) ExtractKeywords(comments []models.Comment) []models.Keyword {
	return a.extractKeywords(a.prepare(comments))
}

func (a *Aggregator) extractKeywords(docs []document) []models.Keyword {
	freq := make(map[string]int)
	for _, d := range docs {
		stop := a.stopwords[d.lang]
		for _, tok := range d.tokens {
			if len([]rune(tok)) < minKeywordRunes || !isAlphabetic(tok) {
				continue
			}
			if _, ok := stop[tok]; ok {
				continue
			}
			if _, ok := a.allStopwords[tok]; ok && d.lang == models.LangOther {
				continue
			}
			freq[tok]++
		}
	}

	keywords := make([]models.Keyword, 0, len(freq))
	for word, n := range freq {
		keywords = append(keywords, models.Keyword{Word: word, Frequency: n})
	}
	sortByFrequency(keywords, func(k models.Keyword) (string, int) { return k.Word, k.Frequency })

	if a.background != nil && len(keywords) > 0 {
		scores := make([]float64, len(keywords))
		maxScore := 0.0
		for i, k := range keywords {
			scores[i] = float64(k.Frequency) * a.background.idf(k.Word)
			maxScore = math.Max(maxScore, scores[i])
		}
		for i := range keywords {
			rel := 0.0
			if maxScore > 0 {
				rel = round(scores[i]/maxScore, 3)
			}
			keywords[i].Relevance = &rel
		}
	}

	return limit(keywords, a.opts.KeywordLimit)
}

// sortByFrequency orders by frequency descending, then text ascending.
func sortByFrequency[T any](items []T, key func(T) (string, int)) {
	sort.SliceStable(items, func(i, j int) bool {
		wi, fi := key(items[i])
		wj, fj := key(items[j])
		if fi != fj {
			return fi > fj
		}
		return wi < wj
	})
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
