package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/codeflix/filestore-bot/internal/bot"
	"github.com/codeflix/filestore-bot/internal/catalog"
	"github.com/codeflix/filestore-bot/internal/config"
	"github.com/codeflix/filestore-bot/internal/registry"
	"github.com/codeflix/filestore-bot/internal/service"
	"github.com/codeflix/filestore-bot/internal/shortener"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "filestore",
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	reg := registry.New(registry.Seed{
		OwnerID:           cfg.OwnerID,
		Admins:            cfg.Admins,
		Channels:          cfg.ForceSubChannels,
		AutoDeleteSeconds: cfg.AutoDeleteSeconds,
		ForceSubEnabled:   len(cfg.ForceSubChannels) > 0,
		AutoDeleteEnabled: true,
	})
	cat := catalog.New()

	short := shortener.New(cfg.ShortenerEnabled, cfg.ShortenerSite, cfg.ShortenerAPIKey,
		logger.WithPrefix("shortener"))

	store := service.New(reg, cat, short)

	b, err := bot.New(cfg, store, logger.WithPrefix("bot"))
	if err != nil {
		logger.Fatal("failed to initialize bot", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := catalog.NewSweeper(cat, reg, cfg.SweepInterval, logger.WithPrefix("sweeper"))
	go sweeper.Run(ctx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		logger.Info("shutting down", "signal", s)
		cancel()
	}()

	logger.Info("starting file store bot")
	if err := b.Start(ctx); err != nil {
		logger.Fatal("bot stopped", "error", err)
	}
	logger.Info("stopped")
}
