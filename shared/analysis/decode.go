package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"comment-analyzer/internal/models"
)

// ErrInvalidInput is returned when a comment payload is not a JSON list.
var ErrInvalidInput = errors.New("comments payload must be a JSON list")

// DecodeComments parses a client supplied JSON list of comments. Elements that
// are not objects are skipped; bad field values are coerced rather than
// rejected so that one malformed record does not fail the batch.
func DecodeComments(data []byte) ([]models.Comment, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if raw == nil {
		return nil, ErrInvalidInput
	}

	comments := make([]models.Comment, 0, len(raw))
	for _, elem := range raw {
		var fields map[string]any
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil || fields == nil {
			continue
		}
		comments = append(comments, models.Comment{
			Author:       stringField(fields, "author"),
			Text:         stringField(fields, "text"),
			LikeCount:    likesField(fields),
			LanguageHint: strings.ToLower(stringField(fields, "language_hint", "language")),
			AuthorAvatar: stringField(fields, "author_avatar"),
		})
	}
	return comments, nil
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok {
			return s
		}
	}
	return ""
}

func likesField(fields map[string]any) int64 {
	for _, k := range []string{"likes", "like_count", "likeCount"} {
		v, ok := fields[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case json.Number:
			return clampLikes(string(n))
		case string:
			return clampLikes(strings.TrimSpace(n))
		}
		return 0
	}
	return 0
}

func clampLikes(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}
