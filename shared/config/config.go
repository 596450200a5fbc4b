package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Watchlist  WatchlistConfig  `yaml:"watchlist"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type ServerConfig struct {
	Port               string   `yaml:"port" env:"PORT"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
}

type YouTubeConfig struct {
	APIKey             string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID           string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret       string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile          string `yaml:"token_file"`
	MaxComments        int    `yaml:"max_comments"`
	SummaryMaxComments int    `yaml:"summary_max_comments"`
}

// UsesOAuth reports whether the client should authenticate with an OAuth
// token instead of an API key.
func (y YouTubeConfig) UsesOAuth() bool {
	return y.APIKey == "" && y.ClientID != "" && y.ClientSecret != ""
}

type AIConfig struct {
	GeminiAPIKeys   []string      `yaml:"gemini_api_keys" env:"GEMINI_API_KEYS"`
	Models          []string      `yaml:"models"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// Enabled reports whether at least one Gemini key is configured.
func (a AIConfig) Enabled() bool {
	return len(a.GeminiAPIKeys) > 0
}

type AnalysisConfig struct {
	KeywordLimit         int    `yaml:"keyword_limit"`
	PhraseLimit          int    `yaml:"phrase_limit"`
	MinPhraseFrequency   int    `yaml:"min_phrase_frequency"`
	PopularLimit         int    `yaml:"popular_limit"`
	BackgroundCorpusFile string `yaml:"background_corpus_file"`
}

type CacheConfig struct {
	RedisURL   string        `yaml:"redis_url" env:"REDIS_URL"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type StorageConfig struct {
	DatabasePath string        `yaml:"database_path" env:"DATABASE_PATH"`
	MaxAge       time.Duration `yaml:"max_age"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type WatchlistConfig struct {
	VideoIDs []string `yaml:"video_ids"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	return LoadFile(configFile)
}

// LoadFile reads the YAML file at path, applies environment fallbacks and
// defaults, and validates the result. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setFromEnv(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setFromEnv(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setFromEnv(&c.Cache.RedisURL, "REDIS_URL")
	setFromEnv(&c.Storage.DatabasePath, "DATABASE_PATH")
	setFromEnv(&c.Logging.Level, "LOG_LEVEL")
	setFromEnv(&c.Logging.Format, "LOG_FORMAT")

	if len(c.AI.GeminiAPIKeys) == 0 {
		if keys := os.Getenv("GEMINI_API_KEYS"); keys != "" {
			c.AI.GeminiAPIKeys = splitList(keys)
		} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.AI.GeminiAPIKeys = []string{key}
		}
	}
	c.AI.GeminiAPIKeys = splitList(strings.Join(c.AI.GeminiAPIKeys, ","))

	if port := os.Getenv("HEALTH_PORT"); port != "" && c.Monitoring.HealthPort == 0 {
		if p, err := strconv.Atoi(port); err == nil {
			c.Monitoring.HealthPort = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RateLimitPerSecond == 0 {
		c.Server.RateLimitPerSecond = 5
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 10
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.MaxComments == 0 {
		c.YouTube.MaxComments = 100
	}
	if c.YouTube.SummaryMaxComments == 0 {
		c.YouTube.SummaryMaxComments = 200
	}

	if len(c.AI.Models) == 0 {
		c.AI.Models = []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 8192
	}
	if c.AI.MaxRetries == 0 {
		c.AI.MaxRetries = 2
	}
	if c.AI.RetryDelay == 0 {
		c.AI.RetryDelay = 5 * time.Second
	}

	if c.Analysis.KeywordLimit == 0 {
		c.Analysis.KeywordLimit = 10
	}
	if c.Analysis.PhraseLimit == 0 {
		c.Analysis.PhraseLimit = 10
	}
	if c.Analysis.MinPhraseFrequency == 0 {
		c.Analysis.MinPhraseFrequency = 2
	}
	if c.Analysis.PopularLimit == 0 {
		c.Analysis.PopularLimit = 10
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 500
	}

	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "data/history.db"
	}
	if c.Storage.MaxAge == 0 {
		c.Storage.MaxAge = 7 * 24 * time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Schedule == "" {
		c.Schedule = "0 0 */6 * * *" // Every 6 hours
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric, got %q", c.Server.Port)
	}
	if c.YouTube.MaxComments < 0 || c.YouTube.SummaryMaxComments < 0 {
		return fmt.Errorf("youtube comment limits must not be negative")
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func setFromEnv(field *string, key string) {
	if *field != "" {
		return
	}
	*field = os.Getenv(key)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
