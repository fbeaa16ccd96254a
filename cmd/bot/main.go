package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chat_filter/internal/bot"
	"chat_filter/internal/config"
	"chat_filter/internal/metrics"
	"chat_filter/internal/model"
	"chat_filter/internal/rulesource"
	"chat_filter/internal/scheduler"
	"chat_filter/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	defaults := model.DefaultSettings(0)
	if cfg.DefaultsPath != "" {
		defaults, err = config.LoadDefaults(cfg.DefaultsPath)
		if err != nil {
			log.Error("load defaults", "path", cfg.DefaultsPath, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	m := metrics.New()

	b, err := bot.New(cfg.TelegramBotToken, store, cfg, defaults, m, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error("serve metrics", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	loader := rulesource.New(cfg.RulesDir, cfg.RulesURL, &http.Client{Timeout: 30 * time.Second})
	if loader.Enabled() {
		sched := scheduler.New(loader, b, log, cfg.RulesReload)
		go sched.Run(ctx)
	}

	log.Info("starting bot", "relay_chat_id", cfg.RelayChatID)

	b.Run(ctx)

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
