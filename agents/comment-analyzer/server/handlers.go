package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	commentanalyzer "comment-analyzer/agents/comment-analyzer"
	"comment-analyzer/agents/comment-analyzer/youtube"
	"comment-analyzer/internal/models"
	"comment-analyzer/shared/ai"
	"comment-analyzer/shared/analysis"
	"comment-analyzer/shared/apperrors"
	"comment-analyzer/shared/storage"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	maxCommentsBody     = 10 << 20
)

type rootResponse struct {
	Message          string `json:"message"`
	YouTubeAvailable bool   `json:"youtube_api_available"`
	AIAvailable      bool   `json:"gemini_api_available"`
	Model            string `json:"gemini_model,omitempty"`
	Uptime           string `json:"uptime"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{
		Message:          "YouTube Comment Analyzer API",
		YouTubeAvailable: s.service.YouTubeAvailable(),
		AIAvailable:      s.service.AIAvailable(),
		Model:            s.service.CurrentModel(),
		Uptime:           s.now().Sub(s.startTime).Round(time.Second).String(),
	})
}

type pingResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handlePing(c echo.Context) error {
	return c.JSON(http.StatusOK, pingResponse{Message: "pong", Timestamp: s.now().UTC()})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	videoID := strings.TrimSpace(c.QueryParam("video_id"))
	if videoID == "" {
		return apperrors.ValidationError("video_id query parameter is required")
	}

	report, err := s.service.AnalyzeVideo(c.Request().Context(), videoID)
	if err != nil {
		return toAppError(err).WithContext("video_id", videoID)
	}
	return c.JSON(http.StatusOK, report)
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleAnalyzeURL(c echo.Context) error {
	var req analyzeURLRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Request body must be JSON with a url field")
	}
	if strings.TrimSpace(req.URL) == "" {
		return apperrors.ValidationError("url is required")
	}

	report, err := s.service.AnalyzeURL(c.Request().Context(), req.URL)
	if err != nil {
		return toAppError(err).WithContext("url", req.URL)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleKeywords(c echo.Context) error {
	videoID := c.Param("video_id")
	result, err := s.service.Keywords(c.Request().Context(), videoID)
	if err != nil {
		return toAppError(err).WithContext("video_id", videoID)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyzeComments(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCommentsBody))
	if err != nil {
		return apperrors.ValidationError("Failed to read request body")
	}

	comments, err := analysis.DecodeComments(body)
	if err != nil {
		return toAppError(err)
	}
	return c.JSON(http.StatusOK, s.service.AnalyzeComments(c.Request().Context(), comments))
}

func (s *Server) handleTestNLP(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.AnalyzeSample(c.Request().Context()))
}

type geminiAnalysisRequest struct {
	VideoID string `json:"video_id"`
}

func (s *Server) handleGeminiAnalysis(c echo.Context) error {
	var req geminiAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Request body must be JSON with a video_id field")
	}
	if strings.TrimSpace(req.VideoID) == "" {
		return apperrors.ValidationError("video_id is required")
	}

	result, err := s.service.Summarize(c.Request().Context(), req.VideoID)
	if err != nil {
		return toAppError(err).WithContext("video_id", req.VideoID)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGeminiStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.AIStatus(c.Request().Context()))
}

func (s *Server) handleTestGemini(c echo.Context) error {
	result, err := s.service.TestAI(c.Request().Context())
	if err != nil {
		if result == nil {
			result = &ai.ConnectionResult{Message: err.Error()}
		}
		return c.JSON(http.StatusServiceUnavailable, result)
	}
	return c.JSON(http.StatusOK, result)
}

type historyResponse struct {
	VideoID   string            `json:"video_id"`
	Count     int               `json:"count"`
	Snapshots []models.Snapshot `json:"snapshots"`
}

func (s *Server) handleHistory(c echo.Context) error {
	videoID := c.Param("video_id")

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		limit = min(n, maxHistoryLimit)
	}

	snapshots, err := s.service.History(c.Request().Context(), videoID, limit)
	if err != nil {
		return toAppError(err).WithContext("video_id", videoID)
	}
	return c.JSON(http.StatusOK, historyResponse{VideoID: videoID, Count: len(snapshots), Snapshots: snapshots})
}

// toAppError maps service errors onto API error types. Anything unknown is
// treated as an upstream failure since every remaining path calls YouTube
// or Gemini.
func toAppError(err error) *apperrors.Error {
	var structured *apperrors.Error
	switch {
	case errors.As(err, &structured):
		return structured
	case errors.Is(err, youtube.ErrInvalidVideoID):
		return apperrors.ValidationError("Invalid YouTube video ID or URL")
	case errors.Is(err, analysis.ErrInvalidInput):
		return apperrors.ValidationError("Comments must be a JSON list")
	case errors.Is(err, youtube.ErrVideoNotFound):
		return apperrors.NotFoundError("Video not found or unavailable")
	case errors.Is(err, youtube.ErrCommentsDisabled):
		return apperrors.NotFoundError("Comments are disabled for this video")
	case errors.Is(err, commentanalyzer.ErrNoComments):
		return apperrors.NotFoundError("No comments found for this video")
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFoundError("No stored analysis for this video")
	case errors.Is(err, ai.ErrNotConfigured):
		return apperrors.UnavailableError("Gemini API is not configured", err)
	case errors.Is(err, ai.ErrCircuitOpen):
		return apperrors.UnavailableError("Gemini API is temporarily unavailable", err)
	case errors.Is(err, ai.ErrModelUnavailable):
		return apperrors.UnavailableError("No configured Gemini model is available, check ai.models", err)
	case errors.Is(err, commentanalyzer.ErrHistoryDisabled):
		return apperrors.UnavailableError("Analysis history is not enabled", err)
	case errors.Is(err, ai.ErrQuotaExhausted):
		return apperrors.RateLimitedError("Gemini quota exhausted on every key, try again later")
	case errors.Is(err, ai.ErrContentBlocked):
		return apperrors.ExternalError("Gemini refused to analyze this content", err)
	case errors.Is(err, ai.ErrEmptyResponse):
		return apperrors.ExternalError("Gemini returned an empty response", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.ExternalError("Upstream request timed out", err)
	default:
		return apperrors.ExternalError("Upstream API request failed", err)
	}
}
