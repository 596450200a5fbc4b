package commentanalyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"comment-analyzer/agents/comment-analyzer/youtube"
	"comment-analyzer/internal/models"
	"comment-analyzer/shared/ai"
	"comment-analyzer/shared/analysis"
	"comment-analyzer/shared/cache"
	"comment-analyzer/shared/logging"
	"comment-analyzer/shared/markdown"
	"comment-analyzer/shared/metrics"
)

// ErrNoComments means the video exists but returned no comments to analyze.
var ErrNoComments = errors.New("no comments found for this video")

const keywordsSampleSize = 50

// VideoSource fetches videos and their comments.
type VideoSource interface {
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
	GetComments(ctx context.Context, videoID string, maxResults int) ([]models.Comment, error)
}

// Summarizer writes AI reports about a video's comments.
type Summarizer interface {
	Enabled() bool
	Status() ai.Status
	Summarize(ctx context.Context, video *models.Video, comments []models.Comment, language string) (*models.AISummary, error)
	TestConnection(ctx context.Context) (*ai.ConnectionResult, error)
}

// ReportCache collapses and caches report loads.
type ReportCache interface {
	cache.Loadable
	Set(ctx context.Context, key string, data []byte)
}

// History stores report snapshots.
type History interface {
	Save(ctx context.Context, report *models.Report) (*models.Snapshot, error)
	List(ctx context.Context, videoID string, limit int) ([]models.Snapshot, error)
	IsFresh(ctx context.Context, videoID string) (bool, error)
	Prune(ctx context.Context) (int64, error)
}

// Deps are the collaborators of a Service. Summarizer, Cache and History are
// optional.
type Deps struct {
	YouTube            VideoSource
	Aggregator         *analysis.Aggregator
	Summarizer         Summarizer
	Cache              ReportCache
	History            History
	Metrics            *metrics.AnalysisMetrics
	Clock              clockwork.Clock
	MaxComments        int
	SummaryMaxComments int
}

// Service runs the analysis flows behind the HTTP API and the watchlist.
type Service struct {
	youtube            VideoSource
	aggregator         *analysis.Aggregator
	summarizer         Summarizer
	cache              ReportCache
	history            History
	metrics            *metrics.AnalysisMetrics
	clock              clockwork.Clock
	maxComments        int
	summaryMaxComments int
}

func NewService(d Deps) *Service {
	s := &Service{
		youtube:            d.YouTube,
		aggregator:         d.Aggregator,
		summarizer:         d.Summarizer,
		cache:              d.Cache,
		history:            d.History,
		metrics:            d.Metrics,
		clock:              d.Clock,
		maxComments:        d.MaxComments,
		summaryMaxComments: d.SummaryMaxComments,
	}
	if s.aggregator == nil {
		s.aggregator = analysis.NewAggregator()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.maxComments <= 0 {
		s.maxComments = 100
	}
	if s.summaryMaxComments <= 0 {
		s.summaryMaxComments = 200
	}
	return s
}

func (s *Service) YouTubeAvailable() bool {
	return s.youtube != nil
}

func (s *Service) AIAvailable() bool {
	return s.summarizer != nil && s.summarizer.Enabled()
}

// CurrentModel returns the Gemini model in use, or "" when AI is disabled.
func (s *Service) CurrentModel() string {
	if !s.AIAvailable() {
		return ""
	}
	return s.summarizer.Status().CurrentModel
}

// AnalyzeVideo builds the full report for a video, from the cache when a
// recent one exists.
func (s *Service) AnalyzeVideo(ctx context.Context, videoID string) (*models.Report, error) {
	if !youtube.ValidateVideoID(videoID) {
		return nil, youtube.ErrInvalidVideoID
	}
	if s.cache == nil {
		return s.buildReport(ctx, videoID)
	}

	report, cached, err := cache.GetOrLoadJSON(ctx, s.cache, s.reportKey(videoID), func(ctx context.Context) (*models.Report, error) {
		return s.buildReport(ctx, videoID)
	})
	if err != nil {
		return nil, err
	}
	report.Cached = cached
	return report, nil
}

// RefreshVideo rebuilds a video's report without reading the cache, so a
// snapshot is always saved, then replaces the cached copy.
func (s *Service) RefreshVideo(ctx context.Context, videoID string) (*models.Report, error) {
	if !youtube.ValidateVideoID(videoID) {
		return nil, youtube.ErrInvalidVideoID
	}

	report, err := s.buildReport(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		s.cache.Set(ctx, s.reportKey(videoID), data)
	}
	return report, nil
}

func (s *Service) reportKey(videoID string) string {
	return cache.Key("report", videoID, strconv.Itoa(s.maxComments))
}

// AnalyzeURL extracts the video id from a URL and analyzes it.
func (s *Service) AnalyzeURL(ctx context.Context, rawURL string) (*models.Report, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeVideo(ctx, videoID)
}

func (s *Service) buildReport(ctx context.Context, videoID string) (*models.Report, error) {
	start := s.clock.Now()
	log := logging.WithVideo(videoID)

	video, comments, err := s.fetch(ctx, videoID, s.maxComments)
	if err != nil {
		s.metrics.ObserveRun("youtube", 0, s.clock.Since(start), err)
		return nil, err
	}

	result := s.aggregator.Analyze(comments)
	report := &models.Report{
		Success:        true,
		VideoID:        videoID,
		VideoInfo:      models.NewVideoInfo(video),
		AnalysisResult: result,
		AnalyzedAt:     s.clock.Now().UTC(),
	}
	s.metrics.ObserveRun("youtube", len(comments), s.clock.Since(start), nil)

	if s.history != nil {
		if _, err := s.history.Save(ctx, report); err != nil {
			log.Warn("Failed to save analysis snapshot", "error", err)
		}
	}

	log.Info("Video analyzed",
		"comments", len(comments),
		"main_language", result.Statistics.MainLanguage,
		"duration", s.clock.Since(start))
	return report, nil
}

func (s *Service) fetch(ctx context.Context, videoID string, maxComments int) (*models.Video, []models.Comment, error) {
	if s.youtube == nil {
		return nil, nil, fmt.Errorf("youtube client is not configured")
	}

	video, err := s.youtube.GetVideo(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.youtube.GetComments(ctx, videoID, maxComments)
	if err != nil {
		return nil, nil, err
	}
	if len(comments) == 0 {
		return nil, nil, ErrNoComments
	}
	return video, comments, nil
}

// KeywordsResult is the quick keyword scan of a video.
type KeywordsResult struct {
	Success      bool             `json:"success"`
	VideoID      string           `json:"video_id"`
	Keywords     []models.Keyword `json:"keywords"`
	Phrases      []models.Phrase  `json:"phrases"`
	MainLanguage string           `json:"main_language"`
}

// Keywords extracts keywords and phrases from a small sample of comments
// without fetching video metadata.
func (s *Service) Keywords(ctx context.Context, videoID string) (*KeywordsResult, error) {
	if !youtube.ValidateVideoID(videoID) {
		return nil, youtube.ErrInvalidVideoID
	}
	if s.youtube == nil {
		return nil, fmt.Errorf("youtube client is not configured")
	}

	comments, err := s.youtube.GetComments(ctx, videoID, keywordsSampleSize)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, ErrNoComments
	}

	return &KeywordsResult{
		Success:      true,
		VideoID:      videoID,
		Keywords:     s.aggregator.ExtractKeywords(comments),
		Phrases:      s.aggregator.ExtractPhrases(comments),
		MainLanguage: s.aggregator.ComputeStatistics(comments).MainLanguage,
	}, nil
}

// AnalyzeComments runs the aggregator on comments supplied by the caller.
func (s *Service) AnalyzeComments(ctx context.Context, comments []models.Comment) models.AnalysisResult {
	start := s.clock.Now()
	result := s.aggregator.Analyze(comments)
	s.metrics.ObserveRun("client", len(comments), s.clock.Since(start), nil)
	return result
}

// SampleResult is the aggregator run on the built-in bilingual sample.
type SampleResult struct {
	Comments []models.Comment      `json:"comments"`
	Result   models.AnalysisResult `json:"analysis"`
	Status   string                `json:"test_status"`
}

func (s *Service) AnalyzeSample(ctx context.Context) *SampleResult {
	comments := analysis.SampleComments()
	return &SampleResult{
		Comments: comments,
		Result:   s.AnalyzeComments(ctx, comments),
		Status:   "NLP modules working correctly",
	}
}

// SummaryResult is the AI report with its rendered forms.
type SummaryResult struct {
	Success          bool               `json:"success"`
	VideoID          string             `json:"video_id"`
	VideoInfo        models.VideoInfo   `json:"video_info"`
	CommentsAnalyzed int                `json:"comments_analyzed"`
	Model            string             `json:"model"`
	Analysis         *markdown.Rendered `json:"gemini_analysis"`
	Timestamp        time.Time          `json:"timestamp"`
}

// Summarize asks the AI for a narrative report about a video's comments.
func (s *Service) Summarize(ctx context.Context, videoID string) (*SummaryResult, error) {
	if !s.AIAvailable() {
		return nil, ai.ErrNotConfigured
	}
	if !youtube.ValidateVideoID(videoID) {
		return nil, youtube.ErrInvalidVideoID
	}

	video, comments, err := s.fetch(ctx, videoID, s.summaryMaxComments)
	if err != nil {
		return nil, err
	}

	language := s.aggregator.ComputeStatistics(comments).MainLanguage
	summary, err := s.summarizer.Summarize(ctx, video, comments, language)
	if err != nil {
		return nil, err
	}

	rendered, err := markdown.Render(ctx, summary.Markdown)
	if err != nil {
		return nil, err
	}

	logging.WithVideo(videoID).Info("AI summary generated", "model", summary.Model, "comments", summary.CommentsAnalyzed)
	return &SummaryResult{
		Success:          true,
		VideoID:          videoID,
		VideoInfo:        models.NewVideoInfo(video),
		CommentsAnalyzed: summary.CommentsAnalyzed,
		Model:            summary.Model,
		Analysis:         rendered,
		Timestamp:        summary.GeneratedAt,
	}, nil
}

// AIStatus reports the summarizer configuration and a live connection test.
type AIStatus struct {
	ai.Status
	TestConnection *ai.ConnectionResult `json:"test_connection"`
}

func (s *Service) AIStatus(ctx context.Context) *AIStatus {
	if s.summarizer == nil {
		return &AIStatus{
			Status:         ai.Status{Models: []string{}, Breaker: "closed"},
			TestConnection: &ai.ConnectionResult{Message: ai.ErrNotConfigured.Error()},
		}
	}
	result, _ := s.summarizer.TestConnection(ctx)
	return &AIStatus{Status: s.summarizer.Status(), TestConnection: result}
}

// TestAI runs the connection test and returns its error when it fails.
func (s *Service) TestAI(ctx context.Context) (*ai.ConnectionResult, error) {
	if s.summarizer == nil {
		return nil, ai.ErrNotConfigured
	}
	return s.summarizer.TestConnection(ctx)
}

// ErrHistoryDisabled means no history store is configured.
var ErrHistoryDisabled = errors.New("analysis history is not enabled")

// History lists stored snapshots for a video, newest first.
func (s *Service) History(ctx context.Context, videoID string, limit int) ([]models.Snapshot, error) {
	if !youtube.ValidateVideoID(videoID) {
		return nil, youtube.ErrInvalidVideoID
	}
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.List(ctx, videoID, limit)
}
