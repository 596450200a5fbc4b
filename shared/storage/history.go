package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"comment-analyzer/internal/models"
)

// ErrNotFound is returned when a video has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id      TEXT NOT NULL,
	analyzed_at   INTEGER NOT NULL,
	comment_count INTEGER NOT NULL,
	result_json   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_video ON snapshots(video_id, analyzed_at DESC);`

// HistoryStore keeps analysis reports per video so repeated analyses can be
// compared over time and the watchlist can skip videos analyzed recently.
type HistoryStore struct {
	db     *sql.DB
	maxAge time.Duration
	clock  clockwork.Clock
}

type Option func(*HistoryStore)

// WithClock overrides the clock used for timestamps and freshness checks.
func WithClock(c clockwork.Clock) Option {
	return func(s *HistoryStore) { s.clock = c }
}

// NewHistoryStore opens (or creates) the SQLite database at path.
func NewHistoryStore(path string, maxAge time.Duration, opts ...Option) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	s := &HistoryStore{db: db, maxAge: maxAge, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}

	if n, err := s.Prune(context.Background()); err != nil {
		slog.Warn("Failed to prune history on open", "error", err)
	} else if n > 0 {
		slog.Info("Pruned expired snapshots", "count", n)
	}
	return s, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Save stores report as a new snapshot stamped with the current time.
func (s *HistoryStore) Save(ctx context.Context, report *models.Report) (*models.Snapshot, error) {
	if report == nil || report.VideoID == "" {
		return nil, fmt.Errorf("report must have a video id")
	}

	stored := *report
	stored.Cached = false
	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	now := s.clock.Now().UTC()
	count := report.Statistics.TotalComments
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (video_id, analyzed_at, comment_count, result_json) VALUES (?, ?, ?, ?)`,
		report.VideoID, now.UnixMilli(), count, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot for %s: %w", report.VideoID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	return &models.Snapshot{
		ID:           id,
		VideoID:      report.VideoID,
		AnalyzedAt:   time.UnixMilli(now.UnixMilli()).UTC(),
		CommentCount: count,
		Report:       &stored,
	}, nil
}

// Latest returns the newest snapshot for videoID or ErrNotFound.
func (s *HistoryStore) Latest(ctx context.Context, videoID string) (*models.Snapshot, error) {
	list, err := s.List(ctx, videoID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// List returns up to limit snapshots for videoID, newest first.
func (s *HistoryStore) List(ctx context.Context, videoID string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_id, analyzed_at, comment_count, result_json FROM snapshots
		 WHERE video_id = ? ORDER BY analyzed_at DESC, id DESC LIMIT ?`, videoID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", videoID, err)
	}
	defer rows.Close()

	snapshots := []models.Snapshot{}
	for rows.Next() {
		var (
			snap   models.Snapshot
			millis int64
			data   string
		)
		if err := rows.Scan(&snap.ID, &snap.VideoID, &millis, &snap.CommentCount, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.AnalyzedAt = time.UnixMilli(millis).UTC()

		var report models.Report
		if err := json.Unmarshal([]byte(data), &report); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", snap.ID, err)
		}
		snap.Report = &report
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return snapshots, nil
}

// IsFresh reports whether videoID has a snapshot younger than the max age.
func (s *HistoryStore) IsFresh(ctx context.Context, videoID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE video_id = ? AND analyzed_at > ?`,
		videoID, s.cutoff()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check freshness of %s: %w", videoID, err)
	}
	return n > 0, nil
}

// Prune deletes snapshots older than the max age and returns how many went.
func (s *HistoryStore) Prune(ctx context.Context) (int64, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE analyzed_at <= ?`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored snapshots.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

func (s *HistoryStore) cutoff() int64 {
	if s.maxAge <= 0 {
		return 0
	}
	return s.clock.Now().Add(-s.maxAge).UnixMilli()
}
