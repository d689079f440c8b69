package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glintlab/feedbackd/internal/adapter/gemini"
	"github.com/glintlab/feedbackd/internal/adapter/github"
	"github.com/glintlab/feedbackd/internal/auth"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/policy"
	"github.com/glintlab/feedbackd/internal/service"
	"github.com/glintlab/feedbackd/internal/store"
	transport "github.com/glintlab/feedbackd/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting feedbackd",
		slog.Int("port", cfg.Port),
		slog.String("session_backend", cfg.SessionBackend),
		slog.Bool("ai_configured", cfg.AIConfigured()),
		slog.Bool("tracker_configured", cfg.TrackerConfigured()))

	// Session store
	st, err := newStore(cfg)
	if err != nil {
		log.Error("failed to initialize session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	// AI completion adapter. Left nil when unconfigured so the chat
	// endpoint fails fast instead of recording orphaned messages.
	var ai gemini.Completer
	if cfg.AIConfigured() || cfg.Mode == gemini.ModeMock {
		ai, err = gemini.New(ctx, cfg.Mode, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error("failed to initialize AI adapter", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, chat endpoint will refuse requests")
	}

	// Issue tracker
	var tracker service.IssueTracker
	if cfg.TrackerConfigured() {
		tokens, err := newTokenSource(cfg)
		if err != nil {
			log.Error("failed to initialize tracker credentials", slog.Any("error", err))
			os.Exit(1)
		}
		tracker = github.NewClient(tokens, cfg.GitHubTimeout)
	} else {
		log.Warn("issue tracker not configured, submissions will be refused")
	}

	// Submission policy
	policySource := policy.DefaultPolicy
	if cfg.SubmissionPolicy != "" {
		policySource = cfg.SubmissionPolicy
	}
	policyEngine, err := policy.NewEngine(ctx, policySource)
	if err != nil {
		log.Error("failed to initialize submission policy", slog.Any("error", err))
		os.Exit(1)
	}

	// Trust table
	table := auth.ParseTable(cfg.DomainAPIMappings)
	if table.Empty() {
		log.Warn("DOMAIN_API_MAPPINGS not set, all requests will be rejected")
	} else {
		log.Info("trust table loaded", slog.Any("domains", table.Domains()))
	}

	svc := service.New(st, ai, tracker, policyEngine, cfg, log)
	server := transport.NewServer(svc, table, cfg, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	log.Info("listening", slog.Int("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
	log.Info("stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.SessionBackend {
	case "sqlite":
		return store.NewSQLiteStore(cfg.SessionDatabase)
	case "", "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func newTokenSource(cfg *config.Config) (github.TokenSource, error) {
	if cfg.GitHubToken != "" {
		return github.StaticToken(cfg.GitHubToken), nil
	}
	return github.NewAppAuth(cfg.GitHubAppID, cfg.GitHubInstallID, cfg.GitHubAppPrivateKey, cfg.GitHubAppKeyPath)
}
