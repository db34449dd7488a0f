package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/config"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/notifier"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/quote"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/recorder"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/resolver"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/scanner"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	log.Info().Msg("stock analyzer starting")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init quote source
	var source quote.Source
	if cfg.DataSource.BaseURL != "" {
		source = quote.NewRESTSource(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		source = quote.NewYahooSource(cfg.Proxy)
	}
	log.Info().Str("source", source.Name()).Msg("quote source initialized")

	// Init resolver
	res := resolver.New(source, resolver.Config{
		SevereDrawdownPct:    cfg.Display.SevereDrawdownPct,
		UnresolvedChangeDown: cfg.Display.UnresolvedChangeDown,
	})

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Info().Msg("telegram notifier enabled")
	}

	sc := &scanner.Scanner{
		Resolver: res,
		Sectors:  cfg.Portfolio.Sectors,
		Delay:    time.Duration(cfg.Scan.DelayMs) * time.Millisecond,
		Out:      os.Stdout,
		Color:    !cfg.Display.NoColor,
		Recorder: rec,
		Notifier: tn,
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Scan.WatchCron != "" {
		err = sc.Watch(ctx, cfg.Scan.WatchCron)
	} else {
		err = sc.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("scan")
	}
	log.Info().Msg("stock analyzer stopped")
}
