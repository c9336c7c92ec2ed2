// Command httpd runs the fashion NLP HTTP service: a keyword domain
// filter in front of grouped entity recognition and extractive QA.
package main

import (
	"context"
	"log"
	"time"

	"github.com/stylora/fashion-nlp/internal/bootstrap"
	"github.com/stylora/fashion-nlp/internal/logging"
)

const warmupTimeout = 60 * time.Second

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fashion-nlp service",
		logging.String("env", cfg.Service.Env),
		logging.String("version", cfg.Service.Version),
		logging.String("backend", cfg.Models.Backend),
		logging.Int("port", cfg.Server.Port),
	)

	components, err := bootstrap.NewComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize service", logging.Error(err))
	}
	defer components.Close()

	if cfg.Models.Warmup {
		ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
		err := components.Pipeline.Warmup(ctx)
		cancel()
		if err != nil {
			// Serve fully warm or not at all.
			logger.Fatal("Model warmup failed", logging.Error(err))
		}
	}

	if err := components.Server.Run(); err != nil {
		logger.Fatal("Server terminated", logging.Error(err))
	}
}
