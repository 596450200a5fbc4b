package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	commentanalyzer "comment-analyzer/agents/comment-analyzer"
	"comment-analyzer/agents/comment-analyzer/server"
	"comment-analyzer/agents/comment-analyzer/youtube"
	"comment-analyzer/shared/ai"
	"comment-analyzer/shared/analysis"
	"comment-analyzer/shared/apperrors"
	"comment-analyzer/shared/cache"
	"comment-analyzer/shared/config"
	"comment-analyzer/shared/logging"
	"comment-analyzer/shared/metrics"
	"comment-analyzer/shared/monitoring"
	"comment-analyzer/shared/scheduler"
	"comment-analyzer/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.Logging.Level, cfg.Logging.Format)

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, len(os.Args) > 1 && os.Args[1] == "--once"); err != nil {
		slog.Error("Comment analyzer failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	reg := metrics.NewRegistry(apperrors.HTTPErrorsTotal)
	m := metrics.New(reg)

	resultCache := cache.New(ctx, cfg.Cache, m.Cache)
	defer resultCache.Close()

	deps := commentanalyzer.Deps{
		Aggregator:         newAggregator(cfg.Analysis),
		Cache:              resultCache,
		Metrics:            m.Analysis,
		MaxComments:        cfg.YouTube.MaxComments,
		SummaryMaxComments: cfg.YouTube.SummaryMaxComments,
	}

	if cfg.Storage.DatabasePath != "" {
		history, err := storage.NewHistoryStore(cfg.Storage.DatabasePath, cfg.Storage.MaxAge)
		if err != nil {
			slog.Warn("Analysis history disabled", "path", cfg.Storage.DatabasePath, "error", err)
		} else {
			defer history.Close()
			deps.History = history
		}
	}

	client, err := youtube.NewClient(ctx, cfg.YouTube, m.Analysis)
	if err != nil {
		return err
	}
	deps.YouTube = client

	summarizer := ai.NewSummarizer(cfg.AI, cfg.YouTube.SummaryMaxComments, m.AI)
	if summarizer.Enabled() {
		deps.Summarizer = summarizer
	} else {
		slog.Warn("Gemini API keys not configured, AI summaries disabled")
	}

	service := commentanalyzer.NewService(deps)

	monitor := monitoring.NewMonitor()
	agent := commentanalyzer.NewWatchlistAgent(service, deps.History, cfg.Watchlist.VideoIDs,
		commentanalyzer.WithTokenRefresher(client))
	s := scheduler.New(cfg.Schedule, agent, monitor)

	if once {
		slog.Info("Running watchlist once")
		if err := agent.Initialize(); err != nil {
			return err
		}
		return s.RunOnce(ctx)
	}

	health := monitoring.NewHealthServer(monitor, cfg.Monitoring.HealthPort)
	health.Start(ctx)

	srv := server.NewServer(cfg.Server, service, health.Handler(), reg, m.HTTP)
	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()

	if len(cfg.Watchlist.VideoIDs) > 0 {
		go func() {
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	} else {
		slog.Info("Watchlist empty, scheduler not started")
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	return runErr
}

func newAggregator(cfg config.AnalysisConfig) *analysis.Aggregator {
	opts := []analysis.Option{analysis.WithOptions(analysis.Options{
		KeywordLimit:       cfg.KeywordLimit,
		PhraseLimit:        cfg.PhraseLimit,
		MinPhraseFrequency: cfg.MinPhraseFrequency,
		PopularLimit:       cfg.PopularLimit,
	})}

	if cfg.BackgroundCorpusFile != "" {
		bg, err := analysis.LoadBackground(cfg.BackgroundCorpusFile)
		if err != nil {
			slog.Warn("Keyword relevance disabled", "file", cfg.BackgroundCorpusFile, "error", err)
		} else {
			slog.Info("Loaded background corpus", "documents", bg.Size())
			opts = append(opts, analysis.WithBackground(bg))
		}
	}
	return analysis.NewAggregator(opts...)
}
