package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	"comment-analyzer/shared/apperrors"
	"comment-analyzer/shared/logging"
	"comment-analyzer/shared/metrics"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestIDMiddleware())
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.setupCORSMiddleware())
	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware())
	}
	s.echo.Use(apperrors.Middleware())

	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/ping", s.handlePing)
	s.echo.GET("/test-nlp", s.handleTestNLP)

	s.registerHealthRoutes()
	s.registerAnalysisRoutes()
	s.registerAIRoutes()
}

func (s *Server) registerHealthRoutes() {
	if s.health != nil {
		s.echo.GET("/health", echo.WrapHandler(s.health))
		s.echo.GET("/status", echo.WrapHandler(s.health))
	}
	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))
	}
}

func (s *Server) registerAnalysisRoutes() {
	limited := s.limiter.Middleware()

	s.echo.GET("/analyze", s.handleAnalyze, limited)
	s.echo.POST("/analyze-url", s.handleAnalyzeURL, limited)
	s.echo.GET("/keywords/:video_id", s.handleKeywords, limited)
	s.echo.POST("/analyze-comments", s.handleAnalyzeComments, limited)
	s.echo.GET("/history/:video_id", s.handleHistory)
}

func (s *Server) registerAIRoutes() {
	limited := s.limiter.Middleware()

	s.echo.POST("/gemini-analysis", s.handleGeminiAnalysis, limited)
	s.echo.GET("/gemini-status", s.handleGeminiStatus, limited)
	s.echo.GET("/test-gemini", s.handleTestGemini, limited)
}

func (s *Server) setupRequestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	})
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupCORSMiddleware() echo.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", echo.HeaderXRequestID},
		ExposedHeaders: []string{echo.HeaderXRequestID},
	})
	return echo.WrapMiddleware(c.Handler)
}
