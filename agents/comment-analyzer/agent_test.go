package commentanalyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comment-analyzer/internal/models"
	"comment-analyzer/shared/scheduler"
)

type recordedEvents struct {
	success  []scheduler.Metrics
	partial  []error
	critical []error
}

func (r *recordedEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, d time.Duration) { r.success = append(r.success, m) },
		OnPartialFailure:  func(err error, d time.Duration) { r.partial = append(r.partial, err) },
		OnCriticalFailure: func(err error, d time.Duration) { r.critical = append(r.critical, err) },
	}
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshToken(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestWatchlistMetricsGetSummary(t *testing.T) {
	tests := []struct {
		name     string
		metrics  WatchlistMetrics
		expected string
	}{
		{"all zeros", WatchlistMetrics{}, "watched 0 videos, analyzed 0, skipped 0 fresh, 0 failed"},
		{"mixed", WatchlistMetrics{Watched: 5, Analyzed: 3, Skipped: 1, Failed: 1, Pruned: 4}, "watched 5 videos, analyzed 3, skipped 1 fresh, 1 failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metrics.GetSummary())
		})
	}
}

func TestWatchlistAgentInitialize(t *testing.T) {
	s := newTestService(t, newFakeYouTube(), nil, nil)
	agent := NewWatchlistAgent(s, nil, []string{testVideoID, "https://youtu.be/aaaaaaaaaaa", "garbage"})

	require.NoError(t, agent.Initialize())
	assert.Equal(t, []string{testVideoID, "aaaaaaaaaaa"}, agent.videoIDs)
	assert.Equal(t, "Comment Watchlist", agent.Name())

	noYouTube := NewWatchlistAgent(NewService(Deps{}), nil, nil)
	assert.Error(t, noYouTube.Initialize())
}

func TestWatchlistAgentRunOnce(t *testing.T) {
	yt := newFakeYouTube()
	yt.videos["bbbbbbbbbbb"] = &models.Video{ID: "bbbbbbbbbbb", Title: "fresh"}
	yt.videos["ccccccccccc"] = &models.Video{ID: "ccccccccccc", Title: "other"}
	yt.comments["ccccccccccc"] = []models.Comment{{Text: "Nice one"}}

	history := &fakeHistory{fresh: map[string]bool{"bbbbbbbbbbb": true}, pruned: 2}
	s := newTestService(t, yt, history, nil)
	refresher := &fakeRefresher{}
	agent := NewWatchlistAgent(s, history, []string{testVideoID, "bbbbbbbbbbb", "ccccccccccc"},
		WithPause(0), WithTokenRefresher(refresher))
	require.NoError(t, agent.Initialize())

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	assert.Equal(t, 1, refresher.calls)
	assert.Empty(t, rec.partial)
	require.Len(t, rec.success, 1)
	m := rec.success[0].(WatchlistMetrics)
	assert.Equal(t, 3, m.Watched)
	assert.Equal(t, 2, m.Analyzed)
	assert.Equal(t, 1, m.Skipped)
	assert.Equal(t, int64(2), m.Pruned)
	assert.Equal(t, 2, history.count())
}

func TestWatchlistAgentSavesSnapshotForCachedVideo(t *testing.T) {
	yt := newFakeYouTube()
	history := &fakeHistory{}
	s := newTestService(t, yt, history, nil)

	_, err := s.AnalyzeVideo(context.Background(), testVideoID)
	require.NoError(t, err)
	require.Equal(t, 1, history.count())

	agent := NewWatchlistAgent(s, history, []string{testVideoID}, WithPause(0))
	require.NoError(t, agent.Initialize())

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, rec.success, 1)
	assert.Equal(t, 1, rec.success[0].(WatchlistMetrics).Analyzed)
	assert.Equal(t, 2, history.count())
}

func TestWatchlistAgentPartialFailure(t *testing.T) {
	yt := newFakeYouTube()
	yt.videos["ccccccccccc"] = &models.Video{ID: "ccccccccccc"}
	yt.comments["ccccccccccc"] = []models.Comment{{Text: "ok"}}
	history := &fakeHistory{pruneErr: errors.New("disk full")}
	s := newTestService(t, yt, history, nil)

	agent := NewWatchlistAgent(s, history, []string{testVideoID, "xxxxxxxxxxx", "ccccccccccc"}, WithPause(0))
	require.NoError(t, agent.Initialize())

	rec := &recordedEvents{}
	require.NoError(t, agent.RunOnce(context.Background(), rec.events()))

	require.Len(t, rec.partial, 2, "prune failure and one failed video")
	require.Len(t, rec.success, 1)
	m := rec.success[0].(WatchlistMetrics)
	assert.Equal(t, 2, m.Analyzed)
	assert.Equal(t, 1, m.Failed)
}

func TestWatchlistAgentTooManyFailures(t *testing.T) {
	s := newTestService(t, newFakeYouTube(), nil, nil)
	agent := NewWatchlistAgent(s, nil, []string{"xxxxxxxxxxx", "yyyyyyyyyyy", testVideoID}, WithPause(0))
	require.NoError(t, agent.Initialize())

	rec := &recordedEvents{}
	err := agent.RunOnce(context.Background(), rec.events())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many analysis failures")
	assert.Empty(t, rec.success)
}

func TestWatchlistAgentRefreshFailure(t *testing.T) {
	s := newTestService(t, newFakeYouTube(), nil, nil)
	agent := NewWatchlistAgent(s, nil, []string{testVideoID}, WithPause(0),
		WithTokenRefresher(&fakeRefresher{err: errors.New("revoked")}))
	require.NoError(t, agent.Initialize())

	err := agent.RunOnce(context.Background(), (&recordedEvents{}).events())
	assert.ErrorContains(t, err, "revoked")
}
