package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"comment-analyzer/shared/config"
)

const readonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// oauthSession holds the OAuth configuration and a token source that writes
// refreshed tokens back to disk.
type oauthSession struct {
	config *oauth2.Config
	saver  *tokenSaver
}

func newOAuthSession(ctx context.Context, cfg config.YouTubeConfig) (*oauthSession, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{readonlyScope},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(ctx, oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	return &oauthSession{
		config: oauthConfig,
		saver:  &tokenSaver{config: oauthConfig, token: token, tokenFile: cfg.TokenFile},
	}, nil
}

func (s *oauthSession) httpClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, s.saver)
}

func (s *oauthSession) refresh(ctx context.Context) error {
	if _, err := s.saver.Token(); err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	return nil
}

// tokenSaver is an oauth2.TokenSource that persists every refreshed token.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}

	if newToken.AccessToken != ts.token.AccessToken {
		slog.Info("OAuth token refreshed", "expiry", newToken.Expiry)
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			slog.Warn("Failed to save refreshed token", "error", err)
		}
	}
	return newToken, nil
}

// getToken loads a stored token, keeping expired ones that can be refreshed,
// and falls back to the device authorization flow.
func getToken(ctx context.Context, config *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	if tok, err := tokenFromFile(tokenFile); err == nil {
		if tok.RefreshToken != "" {
			slog.Info("Loaded OAuth token from file", "expiry", tok.Expiry)
			return tok, nil
		}
		if tok.Valid() {
			return tok, nil
		}
	}

	slog.Info("Requesting new OAuth token via device flow")
	tok, err := deviceFlowToken(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokenFile, tok); err != nil {
		slog.Warn("Failed to save OAuth token", "error", err)
	}
	return tok, nil
}

func deviceFlowToken(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	resp, err := config.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			slog.Error("Device authorization rejected",
				"status", retrieveErr.Response.Status,
				"body", strings.TrimSpace(string(retrieveErr.Body)))
		}
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	rule := strings.Repeat("=", 72)
	fmt.Printf("\n%s\nYOUTUBE DEVICE AUTHORIZATION REQUIRED\n%s\n", rule, rule)
	fmt.Printf("1. Visit %s in any browser.\n", resp.VerificationURI)
	fmt.Printf("2. Enter this code: %s\n\n", resp.UserCode)
	fmt.Printf("Waiting for authorization... (Ctrl+C to cancel)\n\n")

	tok, err := config.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode oauth token: %w", err)
	}
	return nil
}
