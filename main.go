package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"demote-bot/bot"
	"demote-bot/commands"
	"demote-bot/config"
	"demote-bot/handlers"
	"demote-bot/model"
	"demote-bot/utils"
	"demote-bot/utils/database/demotions"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}

	if cfg.Database.Driver == model.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), os.ModePerm); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	store, err := demotions.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal("Error initializing demotion store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	b, err := bot.New(cfg, store, logger)
	if err != nil {
		logger.Fatal("Error creating bot", zap.Error(err))
	}
	defer b.Close()

	handlers.Register(b)

	if err := b.Run(commands.GenerateCommands()); err != nil {
		logger.Error("Bot stopped", zap.Error(err))
	}
}
