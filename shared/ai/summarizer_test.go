package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"comment-analyzer/internal/models"
	"comment-analyzer/shared/config"
)

type call struct {
	key   string
	model string
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []call
	respond func(key, model string, n int) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, apiKey, model, prompt string, opts GenerateOptions) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{apiKey, model})
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(apiKey, model, n)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errQuota = errors.New("Error 429, Message: Resource has been exhausted (e.g. check quota)., Status: RESOURCE_EXHAUSTED")

var errModelMissing = errors.New("Error 404, Message: models/gemini-2.5-flash is not found for API version v1beta, Status: NOT_FOUND")

func testConfig(keys ...string) config.AIConfig {
	return config.AIConfig{
		GeminiAPIKeys:   keys,
		Models:          []string{"gemini-2.5-flash", "gemini-2.5-pro"},
		Temperature:     0.7,
		MaxOutputTokens: 1024,
		MaxRetries:      1,
		RetryDelay:      time.Millisecond,
	}
}

var testVideo = &models.Video{ID: "abc123def45", Title: "Go tutorial", ChannelTitle: "Gopher", ViewCount: 1000, LikeCount: 50}

func TestSummarizeNotConfigured(t *testing.T) {
	s := NewSummarizerWithGenerator(testConfig(), 10, &fakeGenerator{}, nil)
	if s.Enabled() {
		t.Fatal("summarizer without keys should be disabled")
	}
	if _, err := s.Summarize(context.Background(), testVideo, nil, "en"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := s.TestConnection(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("TestConnection err = %v, want ErrNotConfigured", err)
	}
}

func TestSummarizeSuccess(t *testing.T) {
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		return "## Audience reaction\nGreat.", nil
	}}
	s := NewSummarizerWithGenerator(testConfig("k1"), 2, gen, nil)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	comments := []models.Comment{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	got, err := s.Summarize(context.Background(), testVideo, comments, "en")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got.Model != "gemini-2.5-flash" || got.CommentsAnalyzed != 2 || !got.GeneratedAt.Equal(fixed) {
		t.Errorf("unexpected summary: %+v", got)
	}
	if got.VideoID != testVideo.ID {
		t.Errorf("video id = %s", got.VideoID)
	}
}

func TestSummarizeRotatesKeyOnQuota(t *testing.T) {
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		if key == "k1" {
			return "", errQuota
		}
		return "ok", nil
	}}
	s := NewSummarizerWithGenerator(testConfig("k1", "k2"), 10, gen, nil)

	got, err := s.Summarize(context.Background(), testVideo, nil, "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got.Model != "gemini-2.5-flash" {
		t.Errorf("model = %s", got.Model)
	}
	// one call plus one retry on k1, then k2
	if gen.callCount() != 3 {
		t.Errorf("calls = %d, want 3", gen.callCount())
	}
	if st := s.Status(); st.CurrentKey != 2 {
		t.Errorf("current key = %d, want 2", st.CurrentKey)
	}
}

func TestSummarizeFallsBackToNextModel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"quota on every key", errQuota},
		{"model not found", errors.New("Error 404, Message: models/gemini-2.5-flash is not found, Status: NOT_FOUND")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
				if model == "gemini-2.5-flash" {
					return "", tt.err
				}
				return "from pro", nil
			}}
			s := NewSummarizerWithGenerator(testConfig("k1", "k2"), 10, gen, nil)

			got, err := s.Summarize(context.Background(), testVideo, nil, "ru")
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if got.Model != "gemini-2.5-pro" || got.Markdown != "from pro" {
				t.Errorf("unexpected summary: %+v", got)
			}
			if s.CurrentModel() != "gemini-2.5-pro" {
				t.Errorf("current model = %s", s.CurrentModel())
			}
		})
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"quota everywhere", errQuota, ErrQuotaExhausted},
		{"safety block", ErrContentBlocked, ErrContentBlocked},
		{"safety message", errors.New("response blocked for SAFETY reasons"), ErrContentBlocked},
		{"empty response", ErrEmptyResponse, ErrEmptyResponse},
		{"model missing everywhere", errModelMissing, ErrModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
				return "", tt.err
			}}
			s := NewSummarizerWithGenerator(testConfig("k1", "k2"), 10, gen, nil)

			_, err := s.Summarize(context.Background(), testVideo, nil, "en")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSummarizeQuotaThenMissingModel(t *testing.T) {
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		if model == "gemini-2.5-flash" {
			return "", errQuota
		}
		return "", errModelMissing
	}}
	s := NewSummarizerWithGenerator(testConfig("k1"), 10, gen, nil)

	_, err := s.Summarize(context.Background(), testVideo, nil, "en")
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("err = %v, want ErrQuotaExhausted", err)
	}
	if errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, should not report a missing model", err)
	}
}

func TestSummarizeHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		cancel()
		return "", errQuota
	}}
	cfg := testConfig("k1")
	cfg.RetryDelay = time.Hour
	s := NewSummarizerWithGenerator(cfg, 10, gen, nil)

	_, err := s.Summarize(ctx, testVideo, nil, "en")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		return "", errors.New("connection reset by peer")
	}}
	s := NewSummarizerWithGenerator(testConfig("k1"), 10, gen, nil)

	for i := 0; i < 5; i++ {
		if _, err := s.Summarize(context.Background(), testVideo, nil, "en"); errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("breaker opened early at call %d", i)
		}
	}

	_, err := s.Summarize(context.Background(), testVideo, nil, "en")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if gen.callCount() != 5 {
		t.Errorf("calls = %d, want 5", gen.callCount())
	}
	if st := s.Status(); st.Breaker != "open" {
		t.Errorf("breaker = %s, want open", st.Breaker)
	}
}

func TestTestConnection(t *testing.T) {
	long := strings.Repeat("x", 150)
	gen := &fakeGenerator{respond: func(key, model string, n int) (string, error) {
		return long, nil
	}}
	s := NewSummarizerWithGenerator(testConfig("k1"), 10, gen, nil)

	got, err := s.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if !got.Success || got.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.Response != strings.Repeat("x", 100)+"..." {
		t.Errorf("response not truncated: %d runes", len(got.Response))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want errorKind
	}{
		{nil, kindOther},
		{errQuota, kindQuota},
		{fmt.Errorf("wrap: %w", ErrContentBlocked), kindBlocked},
		{errors.New("model gemini-x not found"), kindModelUnavailable},
		{errors.New("rate limit exceeded"), kindQuota},
		{errors.New("dial tcp: timeout"), kindOther},
	}
	for _, tt := range tests {
		if got := classify(tt.err); got != tt.want {
			t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	comments := []models.Comment{
		{Author: "low", Text: "meh", LikeCount: 1},
		{Author: "high", Text: "<b>love</b> it", LikeCount: 9},
		{Author: "", Text: "anon", LikeCount: 5},
	}

	prompt, used := BuildPrompt(testVideo, comments, 2, "ru")
	if used != 2 {
		t.Errorf("used = %d, want 2", used)
	}
	if !strings.Contains(prompt, "VIDEO: Go tutorial | Channel: Gopher | Views: 1000 | Likes: 50") {
		t.Errorf("missing header:\n%s", prompt)
	}
	first := strings.Index(prompt, "1. high (9 likes):\nlove it")
	second := strings.Index(prompt, "2. Anonymous (5 likes):")
	if first < 0 || second < 0 || first > second {
		t.Errorf("comments not ordered by likes:\n%s", prompt)
	}
	if strings.Contains(prompt, "low (1 likes)") {
		t.Error("comment beyond the cap was included")
	}
	for _, section := range []string{"### Positive feedback", "### Main problems", "### Technical notes", "### Recommendations", "### Growth opportunities", "### Conclusions"} {
		if !strings.Contains(prompt, section) {
			t.Errorf("missing section %q", section)
		}
	}
	if !strings.Contains(prompt, "Write the report in Russian.") {
		t.Error("missing language instruction")
	}

	empty, n := BuildPrompt(testVideo, nil, 10, "")
	if n != 0 || !strings.Contains(empty, "no comments") {
		t.Errorf("unexpected empty prompt (%d):\n%s", n, empty)
	}
}
