package analysis

import "comment-analyzer/internal/models"

// SampleComments is a small bilingual fixture covering every sentiment bucket.
// The self-test endpoint runs the aggregator on it.
func SampleComments() []models.Comment {
	return []models.Comment{
		{Author: "@test1", Text: "This video is absolutely amazing! Great work!", LikeCount: 10},
		{Author: "@test2", Text: "Это видео просто потрясающе! Отличная работа!", LikeCount: 8},
		{Author: "@test3", Text: "I don't understand this part. Can you explain?", LikeCount: 3},
		{Author: "@test4", Text: "Не понимаю эту часть. Можете объяснить?", LikeCount: 2},
		{Author: "@test5", Text: "This doesn't work for me. Very frustrating.", LikeCount: 1},
		{Author: "@test6", Text: "У меня не работает. Очень расстраивает.", LikeCount: 0},
	}
}
