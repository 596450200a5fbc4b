package models

import "time"

type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ChannelID       string    `json:"channel_id"`
	ChannelTitle    string    `json:"channel_title"`
	ChannelURL      string    `json:"channel_url"`
	ChannelAvatar   string    `json:"channel_avatar,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	Tags            []string  `json:"tags,omitempty"`
	URL             string    `json:"url"`
}

// EngagementRate is (likes + comments) / views as a percentage rounded to two decimals.
func (v *Video) EngagementRate() float64 {
	if v == nil || v.ViewCount <= 0 {
		return 0
	}
	rate := float64(v.LikeCount+v.CommentCount) / float64(v.ViewCount) * 100
	return float64(int64(rate*100+0.5)) / 100
}

type Comment struct {
	Author       string    `json:"author"`
	Text         string    `json:"text"`
	LikeCount    int64     `json:"likes"`
	LanguageHint string    `json:"language_hint,omitempty"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	ReplyCount   int64     `json:"reply_count,omitempty"`
}
