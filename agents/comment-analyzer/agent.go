package commentanalyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"comment-analyzer/agents/comment-analyzer/youtube"
	"comment-analyzer/shared/scheduler"
)

// WatchlistMetrics summarizes one watchlist run.
type WatchlistMetrics struct {
	Watched  int
	Analyzed int
	Skipped  int
	Failed   int
	Pruned   int64
}

func (m WatchlistMetrics) GetSummary() string {
	return fmt.Sprintf("watched %d videos, analyzed %d, skipped %d fresh, %d failed",
		m.Watched, m.Analyzed, m.Skipped, m.Failed)
}

// TokenRefresher refreshes credentials before a run.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) error
}

// WatchlistAgent re-analyzes a fixed list of videos on a schedule so their
// history fills in and their reports stay warm in the cache.
type WatchlistAgent struct {
	service   *Service
	history   History
	videoIDs  []string
	refresher TokenRefresher
	pause     time.Duration
	clock     clockwork.Clock
}

type AgentOption func(*WatchlistAgent)

func WithTokenRefresher(r TokenRefresher) AgentOption {
	return func(a *WatchlistAgent) { a.refresher = r }
}

// WithPause sets the delay between videos.
func WithPause(d time.Duration) AgentOption {
	return func(a *WatchlistAgent) { a.pause = d }
}

func WithAgentClock(c clockwork.Clock) AgentOption {
	return func(a *WatchlistAgent) { a.clock = c }
}

func NewWatchlistAgent(service *Service, history History, videoIDs []string, opts ...AgentOption) *WatchlistAgent {
	a := &WatchlistAgent{
		service:  service,
		history:  history,
		videoIDs: videoIDs,
		pause:    2 * time.Second,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *WatchlistAgent) Name() string {
	return "Comment Watchlist"
}

// Initialize drops malformed video ids from the watchlist.
func (a *WatchlistAgent) Initialize() error {
	if a.service == nil || !a.service.YouTubeAvailable() {
		return fmt.Errorf("watchlist agent needs a YouTube client")
	}

	valid := a.videoIDs[:0]
	for _, raw := range a.videoIDs {
		id, err := youtube.ExtractVideoID(raw)
		if err != nil {
			slog.Warn("Skipping invalid watchlist entry", "entry", raw)
			continue
		}
		valid = append(valid, id)
	}
	a.videoIDs = valid

	slog.Info("Watchlist agent initialized", "videos", len(a.videoIDs), "history", a.history != nil)
	return nil
}

func (a *WatchlistAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	start := a.clock.Now()
	m := WatchlistMetrics{Watched: len(a.videoIDs)}

	if a.refresher != nil {
		if err := a.refresher.RefreshToken(ctx); err != nil {
			return fmt.Errorf("failed to refresh YouTube token: %w", err)
		}
	}

	if a.history != nil {
		pruned, err := a.history.Prune(ctx)
		if err != nil {
			events.OnPartialFailure(err, a.clock.Since(start))
		}
		m.Pruned = pruned
	}

	var lastErr error
	for i, videoID := range a.videoIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if a.history != nil {
			fresh, err := a.history.IsFresh(ctx, videoID)
			if err != nil {
				slog.Warn("Failed to check snapshot freshness", "video_id", videoID, "error", err)
			} else if fresh {
				m.Skipped++
				continue
			}
		}

		if m.Analyzed+m.Failed > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(a.pause):
			}
		}

		slog.Info("Analyzing watchlist video", "video_id", videoID, "position", i+1, "total", len(a.videoIDs))
		if _, err := a.service.RefreshVideo(ctx, videoID); err != nil {
			slog.Warn("Failed to analyze watchlist video", "video_id", videoID, "error", err)
			m.Failed++
			lastErr = fmt.Errorf("video %s: %w", videoID, err)
			if m.Failed > len(a.videoIDs)/2 {
				return fmt.Errorf("too many analysis failures (%d/%d), stopping: %w", m.Failed, i+1, lastErr)
			}
			continue
		}
		m.Analyzed++
	}

	duration := a.clock.Since(start)
	if m.Failed > 0 {
		events.OnPartialFailure(fmt.Errorf("%d of %d videos failed, last: %w", m.Failed, m.Watched, lastErr), duration)
	}
	events.OnSuccess(m, duration)

	slog.Info("Watchlist run complete",
		"watched", m.Watched, "analyzed", m.Analyzed, "skipped", m.Skipped,
		"failed", m.Failed, "pruned", m.Pruned, "duration", duration)
	return nil
}
