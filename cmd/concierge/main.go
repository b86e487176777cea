package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mossview/concierge/internal/api"
	"github.com/mossview/concierge/internal/completion"
	"github.com/mossview/concierge/internal/config"
	"github.com/mossview/concierge/internal/dialogue"
	"github.com/mossview/concierge/internal/escalation"
	"github.com/mossview/concierge/internal/events"
	"github.com/mossview/concierge/internal/faq"
	"github.com/mossview/concierge/internal/groq"
	"github.com/mossview/concierge/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("concierge starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Conversation store
	turns, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open conversation store", "error", err)
		os.Exit(1)
	}
	defer turns.Close()
	slog.Info("conversation store ready", "url", cfg.DatabaseURL)

	// FAQ dataset
	entries, err := faq.Load(cfg.FAQPath)
	if err != nil {
		slog.Error("failed to load FAQ dataset", "path", cfg.FAQPath, "error", err)
		os.Exit(1)
	}
	matcher := faq.NewMatcher(entries, cfg.FAQMatchThreshold)
	slog.Info("faq dataset loaded", "entries", len(entries), "threshold", cfg.FAQMatchThreshold)

	// Escalation filter
	filter := escalation.NewFilter(cfg.EscalationKeywords)

	// Groq client
	if cfg.GroqAPIKey == "" {
		slog.Error("GROQ_API_KEY is required")
		os.Exit(1)
	}
	llm := groq.NewClient(cfg.GroqAPIKey)
	completer := completion.NewClient(llm, cfg.GroqModels, cfg.HistoryWindow, slog.Default())
	slog.Info("groq client ready", "models", cfg.GroqModels)

	// Hand-off events (optional — the bot works without a broker, just no
	// downstream notifications)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without hand-off events")
	}

	// Orchestrator — the main pipeline
	orch := dialogue.New(matcher, filter, turns, completer, publisher, cfg.HistoryWindow, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, orch, turns)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("concierge ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("concierge stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
