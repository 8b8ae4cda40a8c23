package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/asbhaibsr/groupgamingbot/internal/config"
	"github.com/asbhaibsr/groupgamingbot/internal/game"
	"github.com/asbhaibsr/groupgamingbot/internal/server"
	"github.com/asbhaibsr/groupgamingbot/internal/service"
	"github.com/asbhaibsr/groupgamingbot/internal/storage"
	"github.com/asbhaibsr/groupgamingbot/internal/telegram"
)

func main() {
	// .env is optional, production sets variables in the environment
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres ping failed")
	}
	if err := store.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}
	log.Info().Msg("connected to postgres")

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram connection failed")
	}

	notifier := telegram.NewNotifier(api, log)
	scheduler := game.NewScheduler()
	registry := game.NewRegistry(store, scheduler, log)
	engine := game.NewEngine(registry, scheduler, store, store, notifier, game.DefaultTimings(), log)

	if err := engine.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("session restore failed")
	}

	stats := service.New(store)
	handler := telegram.NewHandler(api, engine, stats, cfg.AdminUserID, cfg.LogChannelID, log)
	bot := telegram.NewBot(api, handler, log)

	srv := server.New(store, engine, log)
	go func() {
		if err := srv.Run(cfg.Port); err != nil {
			log.Error().Err(err).Msg("health server stopped")
		}
	}()

	bot.Start(ctx)
	log.Info().Msg("shutting down")
}
