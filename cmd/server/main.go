package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/api"
	"github.com/justaddcoffee/LIRICAL/internal/config"
	"github.com/justaddcoffee/LIRICAL/internal/repository"
	"github.com/justaddcoffee/LIRICAL/internal/service"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting LIRICAL analysis server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := repository.Open(cfg.Resources.DatabasePath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open resource database")
	}
	defer repo.Close()

	svc, err := service.NewAnalysisService(ctx, repo, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build analysis service")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	server := api.NewServer(cfg, svc, logger)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
