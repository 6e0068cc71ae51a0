package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/api"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/config"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/dialogue"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/events"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/messagelog"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/orchestrator"
	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/registrar"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("intake starting", "port", cfg.IntakePort)

	if cfg.DialogueURL == "" {
		slog.Error("DIALOGUE_API_URL is required")
		os.Exit(1)
	}

	// NATS (optional — sessions and registrations still work, just no bus events)
	var bus *events.Client
	if cfg.NatsURL != "" {
		var err error
		bus, err = events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without bus events")
	}

	orch := orchestrator.New(
		classifier.New(cfg.ClassifierURL, slog.Default()),
		dialogue.NewClient(cfg.DialogueURL),
		registrar.New(cfg.ComplaintServiceURL, slog.Default()),
		messagelog.New(cfg.ComplaintServiceURL, slog.Default()),
		bus,
		slog.Default(),
	)

	srv := api.NewServer(cfg.IntakePort, orch, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("intake ready", "port", cfg.IntakePort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	slog.Info("intake stopped")
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
