package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"comment-analyzer/internal/models"
	"comment-analyzer/shared/config"
	"comment-analyzer/shared/metrics"
)

// Summarizer writes a narrative report about a video's comments. It rotates
// through API keys on quota errors and falls back to the next model when a
// model is exhausted or unavailable.
type Summarizer struct {
	cfg         config.AIConfig
	maxComments int
	gen         Generator
	breaker     *gobreaker.CircuitBreaker
	metrics     *metrics.AIMetrics
	now         func() time.Time

	mu       sync.Mutex
	keyIdx   int
	modelIdx int
}

// NewSummarizer builds a summarizer backed by the Gemini API.
func NewSummarizer(cfg config.AIConfig, maxComments int, m *metrics.AIMetrics) *Summarizer {
	return NewSummarizerWithGenerator(cfg, maxComments, NewGeminiGenerator(), m)
}

func NewSummarizerWithGenerator(cfg config.AIConfig, maxComments int, gen Generator, m *metrics.AIMetrics) *Summarizer {
	s := &Summarizer{
		cfg:         cfg,
		maxComments: maxComments,
		gen:         gen,
		metrics:     m,
		now:         time.Now,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			switch classify(err) {
			case kindQuota, kindBlocked, kindModelUnavailable:
				return true
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

// Enabled reports whether any API key is configured.
func (s *Summarizer) Enabled() bool {
	return s != nil && len(s.cfg.GeminiAPIKeys) > 0 && len(s.cfg.Models) > 0
}

// Status describes the summarizer for the status endpoint.
type Status struct {
	Configured   bool     `json:"configured"`
	Keys         int      `json:"keys"`
	CurrentKey   int      `json:"current_key"`
	CurrentModel string   `json:"current_model"`
	Models       []string `json:"models"`
	Breaker      string   `json:"breaker"`
}

func (s *Summarizer) Status() Status {
	if !s.Enabled() {
		return Status{Breaker: gobreaker.StateClosed.String(), Models: []string{}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Configured:   true,
		Keys:         len(s.cfg.GeminiAPIKeys),
		CurrentKey:   s.keyIdx + 1,
		CurrentModel: s.cfg.Models[s.modelIdx],
		Models:       s.cfg.Models,
		Breaker:      s.breaker.State().String(),
	}
}

// CurrentModel returns the model that answered last, or the preferred model
// before the first request.
func (s *Summarizer) CurrentModel() string {
	if !s.Enabled() {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Models[s.modelIdx]
}

// Summarize asks the model for a sectioned markdown report about the comments.
func (s *Summarizer) Summarize(ctx context.Context, video *models.Video, comments []models.Comment, language string) (*models.AISummary, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}

	prompt, used := BuildPrompt(video, comments, s.maxComments, language)
	text, model, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize comments for video %s: %w", video.ID, err)
	}

	return &models.AISummary{
		VideoID:          video.ID,
		Model:            model,
		Markdown:         text,
		CommentsAnalyzed: used,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

// ConnectionResult is the outcome of a connection test.
type ConnectionResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response,omitempty"`
}

// TestConnection sends a short prompt and reports a truncated answer.
func (s *Summarizer) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	if !s.Enabled() {
		return &ConnectionResult{Message: ErrNotConfigured.Error()}, ErrNotConfigured
	}

	text, model, err := s.generate(ctx, "Hello! This is a connection test. Reply with one short sentence.")
	if err != nil {
		return &ConnectionResult{Message: fmt.Sprintf("connection failed: %v", err)}, err
	}
	return &ConnectionResult{
		Success:  true,
		Message:  "Gemini API is working",
		Model:    model,
		Response: truncate(text, 100),
	}, nil
}

// generate walks models in order and keys in rotation until one succeeds.
func (s *Summarizer) generate(ctx context.Context, prompt string) (string, string, error) {
	keys := len(s.cfg.GeminiAPIKeys)
	quotaHit := false
	var lastErr error
	for m := 0; m < len(s.cfg.Models); m++ {
		model := s.cfg.Models[m]

		for attempt := 0; attempt < keys; attempt++ {
			key := s.currentKey()
			text, err := s.callWithRetry(ctx, key, model, prompt)
			if err == nil {
				s.setModel(m)
				return text, model, nil
			}

			lastErr = err
			switch classify(err) {
			case kindQuota:
				quotaHit = true
				slog.Warn("Gemini quota exhausted, rotating key", "model", model, "error", err)
				s.rotateKey()
				continue
			case kindModelUnavailable:
				slog.Warn("Gemini model unavailable", "model", model, "error", err)
			case kindBlocked:
				return "", model, fmt.Errorf("%w: %v", ErrContentBlocked, err)
			default:
				return "", model, err
			}
			break
		}

		if m+1 < len(s.cfg.Models) {
			slog.Info("Falling back to next Gemini model", "from", model, "to", s.cfg.Models[m+1])
			s.metrics.ModelFellBack()
		}
	}
	if quotaHit {
		return "", "", ErrQuotaExhausted
	}
	return "", "", fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
}

// callWithRetry retries quota errors on the same key before giving up.
func (s *Summarizer) callWithRetry(ctx context.Context, key, model, prompt string) (string, error) {
	opts := GenerateOptions{Temperature: s.cfg.Temperature, MaxOutputTokens: s.cfg.MaxOutputTokens}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Gemini quota hit, retrying", "model", model, "attempt", attempt, "delay", s.cfg.RetryDelay)
			if err := wait(ctx, s.cfg.RetryDelay); err != nil {
				return "", err
			}
		}

		start := time.Now()
		out, err := s.breaker.Execute(func() (interface{}, error) {
			return s.gen.Generate(ctx, key, model, prompt, opts)
		})
		s.metrics.ObserveRequest(model, time.Since(start), err)

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrCircuitOpen
		}
		if err == nil {
			return out.(string), nil
		}
		lastErr = err
		if classify(err) != kindQuota {
			return "", err
		}
	}
	return "", lastErr
}

func (s *Summarizer) currentKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.GeminiAPIKeys[s.keyIdx]
}

func (s *Summarizer) rotateKey() {
	s.mu.Lock()
	s.keyIdx = (s.keyIdx + 1) % len(s.cfg.GeminiAPIKeys)
	idx := s.keyIdx
	s.mu.Unlock()

	s.metrics.KeyRotated()
	slog.Info("Rotated Gemini API key", "key_index", idx+1)
}

func (s *Summarizer) setModel(m int) {
	s.mu.Lock()
	s.modelIdx = m
	s.mu.Unlock()
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
