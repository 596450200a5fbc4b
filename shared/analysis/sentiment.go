package analysis

import "comment-analyzer/internal/models"

const (
	exclaimCap  = 3
	questionCap = 3
	emojiCap    = 2
)

// bucketPriority is the tie-break order, strongest first.
var bucketPriority = []string{
	models.BucketExcited,
	models.BucketFrustrated,
	models.BucketConfused,
	models.BucketNeutral,
}

type sentimentScore struct {
	excited    int
	frustrated int
	confused   int
	positive   int
	negative   int
}

func (a *Aggregator) score(n normalized) sentimentScore {
	pos := a.positive.hits(n.tokens, n.joined)
	neg := a.negative.hits(n.tokens, n.joined)
	conf := a.confusion.hits(n.tokens, n.joined)
	return sentimentScore{
		excited:    pos*2 + min(n.exclaims, exclaimCap) + min(n.emoji, emojiCap),
		frustrated: neg * 2,
		confused:   conf*2 + min(n.questions, questionCap),
		positive:   pos,
		negative:   neg,
	}
}

func (s sentimentScore) bucket() string {
	best, bestScore := models.BucketNeutral, 0
	for _, b := range bucketPriority[:3] {
		var v int
		switch b {
		case models.BucketExcited:
			v = s.excited
		case models.BucketFrustrated:
			v = s.frustrated
		case models.BucketConfused:
			v = s.confused
		}
		if v > bestScore {
			best, bestScore = b, v
		}
	}
	return best
}

// polarity is in [-1, 1]; comments without lexicon hits are 0.
func (s sentimentScore) polarity() float64 {
	if s.positive+s.negative == 0 {
		return 0
	}
	return float64(s.positive-s.negative) / float64(s.positive+s.negative)
}

// ClassifySentiment assigns a single comment to one sentiment bucket.
func (a *Aggregator) ClassifySentiment(c models.Comment) string {
	return a.score(normalize(c.Text)).bucket()
}

// SentimentDistribution classifies every comment and returns whole
// percentages per bucket. Empty input yields all zeros.
func (a *Aggregator) SentimentDistribution(comments []models.Comment) models.SentimentBreakdown {
	return sentimentDistribution(a.prepare(comments))
}

func sentimentDistribution(docs []document) models.SentimentBreakdown {
	counts := make(map[string]int, len(bucketPriority))
	for _, d := range docs {
		counts[d.bucket]++
	}

	values := make([]int, len(bucketPriority))
	for i, b := range bucketPriority {
		values[i] = counts[b]
	}
	pct := percentages(values, len(docs), len(bucketPriority)-1)

	return models.SentimentBreakdown{
		Excited:    pct[0],
		Frustrated: pct[1],
		Confused:   pct[2],
		Neutral:    pct[3],
	}
}

func averagePolarity(docs []document) float64 {
	if len(docs) == 0 {
		return 0
	}
	var sum float64
	for _, d := range docs {
		sum += d.score.polarity()
	}
	return round(sum/float64(len(docs)), 3)
}
