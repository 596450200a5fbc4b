package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

var (
	// ErrNotConfigured means no Gemini API key is available.
	ErrNotConfigured = errors.New("gemini API is not configured")
	// ErrQuotaExhausted means every key hit its quota on every model.
	ErrQuotaExhausted = errors.New("all gemini API keys exhausted")
	// ErrModelUnavailable means no configured model exists for these keys.
	ErrModelUnavailable = errors.New("no configured gemini model is available")
	// ErrContentBlocked means the safety filters refused the prompt or answer.
	ErrContentBlocked = errors.New("content blocked by gemini safety filters")
	// ErrEmptyResponse means the model returned no text.
	ErrEmptyResponse = errors.New("gemini returned an empty response")
	// ErrCircuitOpen means recent failures tripped the circuit breaker.
	ErrCircuitOpen = errors.New("gemini temporarily unavailable")
)

// Generator produces text for a prompt with a given key and model.
type Generator interface {
	Generate(ctx context.Context, apiKey, model, prompt string, opts GenerateOptions) (string, error)
}

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiGenerator calls the Gemini API, keeping one client per key.
type GeminiGenerator struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiGenerator() *GeminiGenerator {
	return &GeminiGenerator{clients: make(map[string]*genai.Client)}
}

func (g *GeminiGenerator) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.clients[apiKey] = c
	return c, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, apiKey, model, prompt string, opts GenerateOptions) (string, error) {
	client, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: opts.MaxOutputTokens,
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", model, err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrContentBlocked, result.PromptFeedback.BlockReason)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", ErrContentBlocked
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

type errorKind int

const (
	kindOther errorKind = iota
	kindQuota
	kindModelUnavailable
	kindBlocked
)

// classify maps Gemini errors onto the handling the summarizer needs.
func classify(err error) errorKind {
	if err == nil {
		return kindOther
	}
	if errors.Is(err, ErrContentBlocked) {
		return kindBlocked
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusTooManyRequests:
		return kindQuota
	case http.StatusNotFound:
		return kindModelUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "rate limit"):
		return kindQuota
	case strings.Contains(msg, "safety"):
		return kindBlocked
	case strings.Contains(msg, "not found") && strings.Contains(msg, "model"):
		return kindModelUnavailable
	}
	return kindOther
}
