package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	commentanalyzer "comment-analyzer/agents/comment-analyzer"
	"comment-analyzer/internal/models"
	"comment-analyzer/shared/ai"
	"comment-analyzer/shared/apperrors"
	"comment-analyzer/shared/config"
	"comment-analyzer/shared/metrics"
)

type analysisService interface {
	YouTubeAvailable() bool
	AIAvailable() bool
	CurrentModel() string
	AnalyzeVideo(ctx context.Context, videoID string) (*models.Report, error)
	AnalyzeURL(ctx context.Context, rawURL string) (*models.Report, error)
	Keywords(ctx context.Context, videoID string) (*commentanalyzer.KeywordsResult, error)
	AnalyzeComments(ctx context.Context, comments []models.Comment) models.AnalysisResult
	AnalyzeSample(ctx context.Context) *commentanalyzer.SampleResult
	Summarize(ctx context.Context, videoID string) (*commentanalyzer.SummaryResult, error)
	AIStatus(ctx context.Context) *commentanalyzer.AIStatus
	TestAI(ctx context.Context) (*ai.ConnectionResult, error)
	History(ctx context.Context, videoID string, limit int) ([]models.Snapshot, error)
}

type Server struct {
	echo   *echo.Echo
	config config.ServerConfig

	service  analysisService
	health   http.Handler
	registry *prometheus.Registry
	metrics  *metrics.HTTPMetrics
	limiter  *ipRateLimiter

	now       func() time.Time
	startTime time.Time
}

// NewServer wires the HTTP API. health serves /health and /status; registry
// backs /metrics and may be nil to disable it.
func NewServer(cfg config.ServerConfig, service analysisService, health http.Handler, registry *prometheus.Registry, m *metrics.HTTPMetrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		service:   service,
		health:    health,
		registry:  registry,
		metrics:   m,
		limiter:   newIPRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		now:       time.Now,
		startTime: time.Now(),
	}
	e.HTTPErrorHandler = srv.handleHTTPError

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets tests and embedders drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// handleHTTPError renders errors that escape the middleware chain, such as
// unknown routes, in the same JSON shape as handler errors.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var structured *apperrors.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		structured = apperrors.WrapHTTPError(httpErr)
	default:
		structured = apperrors.AsStructuredError(err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(structured.HTTPStatus())
	} else {
		err = c.JSON(structured.HTTPStatus(), structured.ToResponse())
	}
	if err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
