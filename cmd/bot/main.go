package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tourbooking/internal/bot"
	"tourbooking/internal/config"
	"tourbooking/internal/database"
	"tourbooking/internal/inquiries"
	"tourbooking/internal/logging"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "bot-main")

	if cfg.Telegram.BotToken == "" {
		logger.Error().Msg("telegram.bot_token is empty")
		return os.ErrInvalid
	}
	if len(cfg.Telegram.OperatorChats) == 0 {
		logger.Error().Msg("telegram.operator_chats is empty, nobody could use the bot")
		return os.ErrInvalid
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(baseLogger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	store := inquiries.NewFileStore(cfg.Inquiries.Dir, logging.Component(baseLogger, "inquiries"))

	tg, err := bot.Connect(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("connect to telegram")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	operatorBot := bot.NewBot(tg, cfg, db, store, db, logging.Component(baseLogger, "bot"))
	defer operatorBot.Stop()

	logger.Info().Int("operators", len(cfg.Telegram.OperatorChats)).Msg("operator bot started")
	operatorBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}
	return nil
}
