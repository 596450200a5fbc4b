package analysis

import (
	"sort"

	"comment-analyzer/internal/models"
)

// SelectPopularComments returns the k most liked comments. Ties keep their
// original order, so running it on its own output is a no-op. k <= 0 returns
// every comment sorted.
func SelectPopularComments(comments []models.Comment, k int) []models.Comment {
	sorted := make([]models.Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LikeCount > sorted[j].LikeCount
	})
	return limit(sorted, k)
}

func toPopular(comments []models.Comment) []models.PopularComment {
	out := make([]models.PopularComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, models.PopularComment{
			Author:       c.Author,
			Text:         PlainText(c.Text),
			Likes:        max(c.LikeCount, 0),
			AuthorAvatar: c.AuthorAvatar,
		})
	}
	return out
}
