// Package analysis turns a list of comments into dashboard metrics: sentiment
// buckets, language shares, keywords, phrases, popular comments and summary
// statistics. Everything here is pure and deterministic; an *Aggregator is
// safe for concurrent use.
package analysis

import "comment-analyzer/internal/models"

// Options tunes result sizes. Zero limits mean unlimited.
type Options struct {
	KeywordLimit       int
	PhraseLimit        int
	MinPhraseFrequency int
	PopularLimit       int
}

func DefaultOptions() Options {
	return Options{
		KeywordLimit:       10,
		PhraseLimit:        10,
		MinPhraseFrequency: 2,
		PopularLimit:       10,
	}
}

type Aggregator struct {
	opts       Options
	background *Background

	positive       matcher
	negative       matcher
	confusion      matcher
	interrogatives matcher
	painPoints     matcher
	requests       matcher

	stopwords    map[string]map[string]struct{}
	allStopwords map[string]struct{}
}

type Option func(*config)

type config struct {
	opts       Options
	lexicon    *Lexicon
	background *Background
}

// WithOptions replaces the default limits.
func WithOptions(opts Options) Option {
	return func(c *config) { c.opts = opts }
}

// WithLexicon merges extra entries into the built-in lexicon.
func WithLexicon(extra *Lexicon) Option {
	return func(c *config) { c.lexicon.Merge(extra) }
}

// WithBackground enables relevance scores for keywords.
func WithBackground(bg *Background) Option {
	return func(c *config) { c.background = bg }
}

func NewAggregator(options ...Option) *Aggregator {
	cfg := &config{opts: DefaultOptions(), lexicon: DefaultLexicon()}
	for _, opt := range options {
		opt(cfg)
	}
	lex := cfg.lexicon

	a := &Aggregator{
		opts:           cfg.opts,
		background:     cfg.background,
		positive:       newMatcher(flatten(lex.Positive)...),
		negative:       newMatcher(flatten(lex.Negative)...),
		confusion:      newMatcher(flatten(lex.Confusion)...),
		interrogatives: newMatcher(lex.Interrogatives),
		painPoints:     newMatcher(lex.PainPoints),
		requests:       newMatcher(lex.Requests),
		stopwords:      make(map[string]map[string]struct{}),
		allStopwords:   make(map[string]struct{}),
	}
	for lang, words := range lex.Stopwords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
			a.allStopwords[w] = struct{}{}
		}
		a.stopwords[lang] = set
	}
	if a.background != nil && a.background.Size() == 0 {
		a.background = nil
	}
	return a
}

// Options returns the limits in effect.
func (a *Aggregator) Options() Options {
	return a.opts
}

// document is one comment after the shared normalisation pass.
type document struct {
	normalized
	likes  int64
	lang   string
	score  sentimentScore
	bucket string
}

func (a *Aggregator) prepare(comments []models.Comment) []document {
	docs := make([]document, 0, len(comments))
	for _, c := range comments {
		n := normalize(c.Text)
		score := a.score(n)
		docs = append(docs, document{
			normalized: n,
			likes:      max(c.LikeCount, 0),
			lang:       a.detect(c.LanguageHint, n),
			score:      score,
			bucket:     score.bucket(),
		})
	}
	return docs
}

// Analyze computes the full result in a single normalisation pass. It never
// fails; empty input yields zeroed metrics and empty lists.
func (a *Aggregator) Analyze(comments []models.Comment) models.AnalysisResult {
	docs := a.prepare(comments)
	keywords := a.extractKeywords(docs)

	return models.AnalysisResult{
		Sentiment:            sentimentDistribution(docs),
		LanguageDistribution: a.languageDistribution(docs),
		AverageSentiment:     averagePolarity(docs),
		Keywords:             keywords,
		Phrases:              a.extractPhrases(docs),
		PopularComments:      toPopular(SelectPopularComments(comments, a.opts.PopularLimit)),
		Statistics:           computeStatistics(docs),
		Themes:               a.themes(docs, keywords),
	}
}
