package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commentanalyzer "comment-analyzer/agents/comment-analyzer"
	"comment-analyzer/agents/comment-analyzer/youtube"
	"comment-analyzer/internal/models"
	"comment-analyzer/shared/ai"
	"comment-analyzer/shared/apperrors"
	"comment-analyzer/shared/config"
	"comment-analyzer/shared/metrics"
	"comment-analyzer/shared/monitoring"
)

type fakeService struct {
	mu sync.Mutex

	aiAvailable bool
	model       string
	err         error
	testResult  *ai.ConnectionResult

	gotURL      string
	gotComments []models.Comment
	gotLimit    int
}

func (f *fakeService) YouTubeAvailable() bool { return true }
func (f *fakeService) AIAvailable() bool      { return f.aiAvailable }
func (f *fakeService) CurrentModel() string   { return f.model }

func (f *fakeService) AnalyzeVideo(ctx context.Context, videoID string) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Report{Success: true, VideoID: videoID}, nil
}

func (f *fakeService) AnalyzeURL(ctx context.Context, rawURL string) (*models.Report, error) {
	f.mu.Lock()
	f.gotURL = rawURL
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Report{Success: true, VideoID: "dQw4w9WgXcQ"}, nil
}

func (f *fakeService) Keywords(ctx context.Context, videoID string) (*commentanalyzer.KeywordsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &commentanalyzer.KeywordsResult{
		Success:  true,
		VideoID:  videoID,
		Keywords: []models.Keyword{{Word: "great", Frequency: 3}},
		Phrases:  []models.Phrase{},
	}, nil
}

func (f *fakeService) AnalyzeComments(ctx context.Context, comments []models.Comment) models.AnalysisResult {
	f.mu.Lock()
	f.gotComments = comments
	f.mu.Unlock()
	return models.AnalysisResult{Statistics: models.Statistics{TotalComments: len(comments)}}
}

func (f *fakeService) AnalyzeSample(ctx context.Context) *commentanalyzer.SampleResult {
	return &commentanalyzer.SampleResult{Status: "NLP modules working correctly"}
}

func (f *fakeService) Summarize(ctx context.Context, videoID string) (*commentanalyzer.SummaryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &commentanalyzer.SummaryResult{Success: true, VideoID: videoID, Model: f.model}, nil
}

func (f *fakeService) AIStatus(ctx context.Context) *commentanalyzer.AIStatus {
	return &commentanalyzer.AIStatus{
		Status:         ai.Status{Configured: f.aiAvailable, CurrentModel: f.model},
		TestConnection: f.testResult,
	}
}

func (f *fakeService) TestAI(ctx context.Context) (*ai.ConnectionResult, error) {
	return f.testResult, f.err
}

func (f *fakeService) History(ctx context.Context, videoID string, limit int) ([]models.Snapshot, error) {
	f.mu.Lock()
	f.gotLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []models.Snapshot{{ID: 1, VideoID: videoID}}, nil
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:               "8000",
		AllowedOrigins:     []string{"*"},
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	}
}

func newTestServer(t *testing.T, svc *fakeService) *Server {
	t.Helper()
	srv := NewServer(testServerConfig(), svc, nil, nil, nil)
	srv.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestRoot(t *testing.T) {
	srv := newTestServer(t, &fakeService{aiAvailable: true, model: "gemini-2.5-flash"})

	rec := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "YouTube Comment Analyzer API", resp.Message)
	assert.True(t, resp.YouTubeAvailable)
	assert.True(t, resp.AIAvailable)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Message)
	assert.True(t, resp.Timestamp.Equal(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)), resp.Timestamp)
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/analyze?video_id=dQw4w9WgXcQ", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Equal(t, "dQw4w9WgXcQ", report.VideoID)
}

func TestAnalyzeMissingVideoID(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/analyze", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec).Type)
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{"invalid id", youtube.ErrInvalidVideoID, http.StatusBadRequest, apperrors.TypeValidation},
		{"unknown video", fmt.Errorf("failed to get video: %w", youtube.ErrVideoNotFound), http.StatusNotFound, apperrors.TypeNotFound},
		{"comments disabled", youtube.ErrCommentsDisabled, http.StatusNotFound, apperrors.TypeNotFound},
		{"no comments", commentanalyzer.ErrNoComments, http.StatusNotFound, apperrors.TypeNotFound},
		{"youtube failure", errors.New("googleapi: Error 500: backend error"), http.StatusBadGateway, apperrors.TypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeService{err: tt.err})

			rec := do(t, srv, http.MethodGet, "/analyze?video_id=dQw4w9WgXcQ", "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantType, resp.Type)
			assert.Equal(t, "dQw4w9WgXcQ", resp.Context["video_id"])
		})
	}
}

func TestAnalyzeURL(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	rec := do(t, srv, http.MethodPost, "/analyze-url", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", svc.gotURL)

	rec = do(t, srv, http.MethodPost, "/analyze-url", `{"url":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/analyze-url", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeywords(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/keywords/dQw4w9WgXcQ", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp commentanalyzer.KeywordsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dQw4w9WgXcQ", resp.VideoID)
	require.Len(t, resp.Keywords, 1)
	assert.Equal(t, "great", resp.Keywords[0].Word)
}

func TestAnalyzeComments(t *testing.T) {
	svc := &fakeService{}
	srv := newTestServer(t, svc)

	body := `[{"author":"a","text":"Great video","likes":3}, 42, {"text":"second","likes":"7"}]`
	rec := do(t, srv, http.MethodPost, "/analyze-comments", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.gotComments, 2)
	assert.Equal(t, int64(3), svc.gotComments[0].LikeCount)
	assert.Equal(t, "second", svc.gotComments[1].Text)

	rec = do(t, srv, http.MethodPost, "/analyze-comments", `{"comments":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.TypeValidation, decodeError(t, rec).Type)
}

func TestTestNLP(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/test-nlp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "NLP modules working correctly")
}

func TestGeminiAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
	}{
		{"success", nil, `{"video_id":"dQw4w9WgXcQ"}`, http.StatusOK},
		{"missing id", nil, `{}`, http.StatusBadRequest},
		{"not configured", ai.ErrNotConfigured, `{"video_id":"dQw4w9WgXcQ"}`, http.StatusServiceUnavailable},
		{"breaker open", ai.ErrCircuitOpen, `{"video_id":"dQw4w9WgXcQ"}`, http.StatusServiceUnavailable},
		{"quota", fmt.Errorf("summarize: %w", ai.ErrQuotaExhausted), `{"video_id":"dQw4w9WgXcQ"}`, http.StatusTooManyRequests},
		{"model missing", fmt.Errorf("summarize: %w", ai.ErrModelUnavailable), `{"video_id":"dQw4w9WgXcQ"}`, http.StatusServiceUnavailable},
		{"blocked", ai.ErrContentBlocked, `{"video_id":"dQw4w9WgXcQ"}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeService{err: tt.err, aiAvailable: true, model: "gemini-2.5-pro"})

			rec := do(t, srv, http.MethodPost, "/gemini-analysis", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestGeminiStatus(t *testing.T) {
	srv := newTestServer(t, &fakeService{
		aiAvailable: true,
		model:       "gemini-2.5-flash",
		testResult:  &ai.ConnectionResult{Success: true, Message: "Gemini API is working"},
	})

	rec := do(t, srv, http.MethodGet, "/gemini-status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["configured"])
	assert.Equal(t, "gemini-2.5-flash", resp["current_model"])
	assert.NotNil(t, resp["test_connection"])
}

func TestTestGemini(t *testing.T) {
	ok := newTestServer(t, &fakeService{testResult: &ai.ConnectionResult{Success: true, Message: "Gemini API is working"}})
	rec := do(t, ok, http.MethodGet, "/test-gemini", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestServer(t, &fakeService{err: ai.ErrNotConfigured})
	rec = do(t, failing, http.MethodGet, "/test-gemini", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ai.ConnectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, ai.ErrNotConfigured.Error(), resp.Message)
}

func TestHistory(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"default limit", "", http.StatusOK, defaultHistoryLimit},
		{"explicit limit", "?limit=3", http.StatusOK, 3},
		{"capped limit", "?limit=5000", http.StatusOK, maxHistoryLimit},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			srv := newTestServer(t, svc)

			rec := do(t, srv, http.MethodGet, "/history/dQw4w9WgXcQ"+tt.query, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLimit, svc.gotLimit)

			if tt.wantStatus == http.StatusOK {
				var resp historyResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 1, resp.Count)
				assert.Equal(t, "dQw4w9WgXcQ", resp.Snapshots[0].VideoID)
			}
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(t, &fakeService{err: commentanalyzer.ErrHistoryDisabled})

	rec := do(t, srv, http.MethodGet, "/history/dQw4w9WgXcQ", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	rec := do(t, srv, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.TypeNotFound, decodeError(t, rec).Type)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	monitor := monitoring.NewMonitor()
	health := monitoring.NewHealthServer(monitor, 0)
	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	srv := NewServer(testServerConfig(), &fakeService{}, health.Handler(), reg, m.HTTP)

	rec := do(t, srv, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK")

	monitor.RecordCriticalFailure(errors.New("youtube down"), time.Second)
	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, srv, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "youtube down")

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `comment_analyzer_http_requests_total{method="GET",route="/ping",status_code="200"} 1`)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitedRoutes(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimitPerSecond = 0.001
	cfg.RateLimitBurst = 2
	srv := NewServer(cfg, &fakeService{}, nil, nil, nil)

	for i := 0; i < 2; i++ {
		rec := do(t, srv, http.MethodGet, "/analyze?video_id=dQw4w9WgXcQ", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := do(t, srv, http.MethodGet, "/keywords/dQw4w9WgXcQ", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apperrors.TypeRateLimited, decodeError(t, rec).Type)

	// unlimited routes are unaffected
	rec = do(t, srv, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
