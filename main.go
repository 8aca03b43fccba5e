package main

import (
	"context"
	"os"

	"carscout/config"
	"carscout/pipeline"
	"carscout/storage"
	"carscout/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== carscout starting ===")
	logger.Info("Config — pages: %d | budget: %.0f–%.0f EUR | store: %s | renderer: %s",
		cfg.MaxPages, cfg.MinPrice, cfg.MaxPrice, cfg.DBDriver, cfg.Renderer)

	store, err := storage.Open(cfg)
	if err != nil {
		logger.Error("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	p := pipeline.New(cfg, store, logger)
	if err := p.Run(context.Background()); err != nil {
		logger.Error("Pipeline failed: %v", err)
		os.Exit(1)
	}

	logger.Info("=== carscout done ===")
}
