package models

import "time"

type AISummary struct {
	VideoID          string    `json:"video_id"`
	Model            string    `json:"model"`
	Markdown         string    `json:"markdown"`
	CommentsAnalyzed int       `json:"comments_analyzed"`
	GeneratedAt      time.Time `json:"generated_at"`
}
