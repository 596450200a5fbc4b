package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"comment-analyzer/internal/models"
	"comment-analyzer/shared/config"
	"comment-analyzer/shared/metrics"
)

var (
	// ErrVideoNotFound means the id does not name an accessible video.
	ErrVideoNotFound = errors.New("video not found")
	// ErrCommentsDisabled means the owner turned comments off.
	ErrCommentsDisabled = errors.New("comments are disabled for this video")
)

// pageSize is the largest page commentThreads.list returns.
const pageSize = 100

// Client reads video metadata and top-level comments from the YouTube Data API.
type Client struct {
	service *youtube.Service
	metrics *metrics.AnalysisMetrics
	auth    *oauthSession
}

// NewClient authenticates with the API key when one is configured, otherwise
// with an OAuth token obtained through the device flow.
func NewClient(ctx context.Context, cfg config.YouTubeConfig, m *metrics.AnalysisMetrics) (*Client, error) {
	if cfg.APIKey != "" {
		service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service: %w", err)
		}
		slog.Info("YouTube client ready", "auth", "api_key")
		return &Client{service: service, metrics: m}, nil
	}

	if !cfg.UsesOAuth() {
		return nil, fmt.Errorf("youtube credentials are not configured")
	}

	session, err := newOAuthSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	service, err := youtube.NewService(ctx, option.WithHTTPClient(session.httpClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	slog.Info("YouTube client ready", "auth", "oauth")
	return &Client{service: service, metrics: m, auth: session}, nil
}

// NewClientWithService wraps an already configured service.
func NewClientWithService(service *youtube.Service, m *metrics.AnalysisMetrics) *Client {
	return &Client{service: service, metrics: m}
}

// RefreshToken refreshes the OAuth token ahead of a scheduled run. It is a
// no-op for API key clients.
func (c *Client) RefreshToken(ctx context.Context) error {
	if c.auth == nil {
		return nil
	}
	return c.auth.refresh(ctx)
}

// GetVideo fetches title, statistics and channel details for one video.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	resp, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	c.metrics.ObserveYouTube("videos", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", videoID, mapError(err))
	}
	if len(resp.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := resp.Items[0]
	video := &models.Video{
		ID:  item.Id,
		URL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id),
	}
	if s := item.Snippet; s != nil {
		video.Title = s.Title
		video.Description = s.Description
		video.ChannelID = s.ChannelId
		video.ChannelTitle = s.ChannelTitle
		video.Tags = s.Tags
		if published, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			video.PublishedAt = published
		}
	}
	if st := item.Statistics; st != nil {
		video.ViewCount = int64(st.ViewCount)
		video.LikeCount = int64(st.LikeCount)
		video.CommentCount = int64(st.CommentCount)
	}
	if cd := item.ContentDetails; cd != nil {
		video.Duration = cd.Duration
		video.DurationSeconds = parseDurationSeconds(cd.Duration)
	}

	video.ChannelURL = channelURL("", video.ChannelID)
	if video.ChannelID != "" {
		c.addChannelDetails(ctx, video)
	}
	return video, nil
}

// addChannelDetails fills the avatar and canonical channel link. Failures
// only cost the avatar, so they are logged rather than returned.
func (c *Client) addChannelDetails(ctx context.Context, video *models.Video) {
	resp, err := c.service.Channels.List([]string{"snippet"}).
		Id(video.ChannelID).
		Context(ctx).
		Do()
	c.metrics.ObserveYouTube("channels", err)
	if err != nil {
		slog.Warn("Failed to get channel details", "channel_id", video.ChannelID, "error", err)
		return
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return
	}

	snippet := resp.Items[0].Snippet
	video.ChannelURL = channelURL(snippet.CustomUrl, video.ChannelID)
	if t := snippet.Thumbnails; t != nil {
		for _, thumb := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
			if thumb != nil && thumb.Url != "" {
				video.ChannelAvatar = thumb.Url
				break
			}
		}
	}
}

// GetComments returns up to maxResults top-level comments ordered by
// relevance, following page tokens as needed.
func (c *Client) GetComments(ctx context.Context, videoID string, maxResults int) ([]models.Comment, error) {
	if maxResults <= 0 {
		return []models.Comment{}, nil
	}

	comments := make([]models.Comment, 0, min(maxResults, pageSize))
	pageToken := ""
	for len(comments) < maxResults {
		call := c.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(int64(min(maxResults-len(comments), pageSize))).
			Order("relevance").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		c.metrics.ObserveYouTube("comment_threads", err)
		if err != nil {
			return nil, fmt.Errorf("failed to get comments for %s: %w", videoID, mapError(err))
		}

		for _, item := range resp.Items {
			if comment, ok := toComment(item); ok {
				comments = append(comments, comment)
			}
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(comments) > maxResults {
		comments = comments[:maxResults]
	}
	return comments, nil
}

func toComment(item *youtube.CommentThread) (models.Comment, bool) {
	if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
		return models.Comment{}, false
	}
	s := item.Snippet.TopLevelComment.Snippet
	comment := models.Comment{
		Author:       s.AuthorDisplayName,
		Text:         s.TextDisplay,
		LikeCount:    max(s.LikeCount, 0),
		AuthorAvatar: s.AuthorProfileImageUrl,
		ReplyCount:   item.Snippet.TotalReplyCount,
	}
	if comment.Text == "" {
		comment.Text = s.TextOriginal
	}
	if published, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		comment.PublishedAt = published
	}
	return comment, true
}

// mapError turns API errors with a known meaning into sentinel errors.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "commentsDisabled":
			return fmt.Errorf("%w: %v", ErrCommentsDisabled, err)
		case "videoNotFound":
			return fmt.Errorf("%w: %v", ErrVideoNotFound, err)
		}
	}
	if apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrVideoNotFound, err)
	}
	return err
}

// channelURL prefers the channel handle and falls back to the id link.
func channelURL(customURL, channelID string) string {
	switch {
	case customURL == "":
		if channelID == "" {
			return ""
		}
		return "https://www.youtube.com/channel/" + channelID
	case strings.HasPrefix(customURL, "@"), strings.HasPrefix(customURL, "c/"), strings.HasPrefix(customURL, "user/"):
		return "https://www.youtube.com/" + customURL
	default:
		return "https://www.youtube.com/@" + customURL
	}
}
