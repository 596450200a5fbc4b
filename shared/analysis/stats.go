package analysis

import (
	"unicode/utf8"

	"comment-analyzer/internal/models"
)

const maxTopics = 10

// ComputeStatistics summarises the comment list as a whole.
func (a *Aggregator) ComputeStatistics(comments []models.Comment) models.Statistics {
	return computeStatistics(a.prepare(comments))
}

func computeStatistics(docs []document) models.Statistics {
	if len(docs) == 0 {
		return models.Statistics{}
	}

	var runes int
	var likes int64
	unique := make(map[string]struct{})
	for _, d := range docs {
		runes += utf8.RuneCountInString(d.plain)
		likes += d.likes
		for _, tok := range d.tokens {
			unique[tok] = struct{}{}
		}
	}

	return models.Statistics{
		TotalComments:        len(docs),
		AverageCommentLength: round(float64(runes)/float64(len(docs)), 1),
		TotalLikes:           likes,
		UniqueWords:          len(unique),
		MainLanguage:         mainLanguage(docs),
	}
}

func (a *Aggregator) themes(docs []document, keywords []models.Keyword) models.Themes {
	var t models.Themes
	for _, d := range docs {
		if d.questions > 0 && a.interrogatives.hits(d.tokens, d.joined) > 0 {
			t.FrequentlyAskedQuestions++
		}
		if a.painPoints.hits(d.tokens, d.joined) > 0 {
			t.PainPoints++
		}
		if a.requests.hits(d.tokens, d.joined) > 0 {
			t.ContentRequests++
		}
	}
	t.TopicsOfInterest = min(len(keywords), maxTopics)
	return t
}
