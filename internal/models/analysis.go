package models

import "time"

// Sentiment buckets in tie-break priority order.
const (
	BucketExcited    = "excited"
	BucketFrustrated = "frustrated"
	BucketConfused   = "confused"
	BucketNeutral    = "neutral"
)

// Languages reported in the language distribution.
const (
	LangEnglish = "en"
	LangRussian = "ru"
	LangOther   = "other"
)

type SentimentBreakdown struct {
	Excited    int `json:"excited"`
	Neutral    int `json:"neutral"`
	Confused   int `json:"confused"`
	Frustrated int `json:"frustrated"`
}

// Total is the sum of all four buckets; 100 for any non-empty population.
func (s SentimentBreakdown) Total() int {
	return s.Excited + s.Neutral + s.Confused + s.Frustrated
}

type Keyword struct {
	Word      string   `json:"word"`
	Frequency int      `json:"frequency"`
	Relevance *float64 `json:"relevance,omitempty"`
}

type Phrase struct {
	Phrase    string `json:"phrase"`
	Frequency int    `json:"frequency"`
}

type PopularComment struct {
	Author       string `json:"author"`
	Text         string `json:"text"`
	Likes        int64  `json:"likes"`
	AuthorAvatar string `json:"author_avatar,omitempty"`
}

type Statistics struct {
	TotalComments        int     `json:"total_comments_analyzed"`
	AverageCommentLength float64 `json:"average_comment_length"`
	TotalLikes           int64   `json:"total_likes_on_comments"`
	UniqueWords          int     `json:"total_words_analyzed"`
	MainLanguage         string  `json:"main_language"`
}

type Themes struct {
	FrequentlyAskedQuestions int `json:"frequently_asked_questions"`
	PainPoints               int `json:"high_priority_pain_points"`
	ContentRequests          int `json:"content_requests"`
	TopicsOfInterest         int `json:"topics_of_interest"`
}

type AnalysisResult struct {
	Sentiment            SentimentBreakdown `json:"sentiment_analysis"`
	LanguageDistribution map[string]int     `json:"language_distribution"`
	AverageSentiment     float64            `json:"average_sentiment"`
	Keywords             []Keyword          `json:"keywords"`
	Phrases              []Phrase           `json:"phrases"`
	PopularComments      []PopularComment   `json:"popular_comments"`
	Statistics           Statistics         `json:"statistics"`
	Themes               Themes             `json:"themes"`
}

type VideoInfo struct {
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	ChannelTitle    string   `json:"channel_title"`
	ChannelURL      string   `json:"channel_url"`
	ChannelAvatar   string   `json:"channel_avatar,omitempty"`
	Views           int64    `json:"views"`
	Likes           int64    `json:"likes"`
	Comments        int64    `json:"comments"`
	EngagementRate  float64  `json:"engagement_rate"`
	PublishedAt     string   `json:"published_at"`
	Duration        string   `json:"duration"`
	DurationSeconds int      `json:"duration_seconds"`
	Tags            []string `json:"tags"`
}

// NewVideoInfo flattens video metadata into the dashboard header shape.
func NewVideoInfo(v *Video) VideoInfo {
	info := VideoInfo{
		Title:           v.Title,
		Channel:         v.ChannelTitle,
		ChannelTitle:    v.ChannelTitle,
		ChannelURL:      v.ChannelURL,
		ChannelAvatar:   v.ChannelAvatar,
		Views:           v.ViewCount,
		Likes:           v.LikeCount,
		Comments:        v.CommentCount,
		EngagementRate:  v.EngagementRate(),
		Duration:        v.Duration,
		DurationSeconds: v.DurationSeconds,
		Tags:            v.Tags,
	}
	if !v.PublishedAt.IsZero() {
		info.PublishedAt = v.PublishedAt.Format(time.RFC3339)
	}
	if info.Tags == nil {
		info.Tags = []string{}
	}
	return info
}

// Report is the response body of the analyze endpoints.
type Report struct {
	Success   bool      `json:"success"`
	VideoID   string    `json:"video_id"`
	VideoInfo VideoInfo `json:"video_info"`
	AnalysisResult
	AnalyzedAt time.Time `json:"analyzed_at"`
	Cached     bool      `json:"cached"`
}

// Snapshot is a stored report for a video at a point in time.
type Snapshot struct {
	ID           int64     `json:"id"`
	VideoID      string    `json:"video_id"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	CommentCount int       `json:"comment_count"`
	Report       *Report   `json:"report"`
}
