package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/bootstrap"
	"github.com/cuongbtq/invoice-pipeline/internal/extractor"
	"github.com/cuongbtq/invoice-pipeline/internal/pipeline"
	"github.com/cuongbtq/invoice-pipeline/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := bootstrap.Logger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	slog.SetDefault(appLogger.Logger)

	logger := appLogger.Component("worker")

	logger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	dbClient, store, err := bootstrap.Database(context.Background(), &cfg.Database, logger)
	if err != nil {
		return err
	}

	logger.Info("Database connection established")

	rabbitClient, err := bootstrap.RabbitMQ(&cfg.RabbitMQ, logger)
	if err != nil {
		dbClient.Close()
		return err
	}

	logger.Info("RabbitMQ connection established")

	// Cleanup function to close all resources
	cleanup := func() {
		rabbitClient.Close()
		dbClient.Close()
	}
	defer cleanup()

	blobs, err := bootstrap.ObjectStore(context.Background(), &cfg.ObjectStorage, logger)
	if err != nil {
		return err
	}

	vision, err := extractor.NewClient(extractor.Config{
		BaseURL:       cfg.Extractor.BaseURL,
		APIKey:        cfg.Extractor.APIKey,
		Model:         cfg.Extractor.Model,
		Timeout:       cfg.Extractor.Timeout,
		MaxTokens:     cfg.Extractor.MaxTokens,
		RetryCount:    cfg.Extractor.RetryCount,
		RetryWaitTime: cfg.Extractor.RetryWaitTime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	processor := pipeline.NewProcessor(pipeline.ProcessorDeps{
		Jobs:      store,
		Documents: store,
		Results:   store,
		Synonyms:  store,
		Blobs:     blobs,
		Extractor: vision,
	}, pipeline.ProcessorConfig{
		FinalizeDelay: cfg.Pipeline.FinalizeDelay,
	}, logger)

	workerInstance := worker.NewWorker(worker.Config{
		WorkerID:           cfg.Worker.ID,
		Concurrency:        cfg.Worker.Concurrency,
		PrefetchCount:      cfg.RabbitMQ.Consumer.PrefetchCount,
		JobTimeout:         cfg.Worker.JobTimeout,
		HeartbeatInterval:  cfg.Worker.HeartbeatInterval,
		StaleAfter:         cfg.Worker.StaleAfter,
		StaleCheckInterval: cfg.Worker.StaleCheckInterval,
	}, rabbitClient, store, processor, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	logger.Info("Worker service started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case runErr = <-errChan:
		logger.Error("Worker error", slog.Any("error", runErr))
	}

	// Cancel context to stop worker; in-flight jobs record their failure
	cancel()

	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Worker stopped gracefully")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		logger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	logger.Info("Worker service shutdown complete")
	return runErr
}
