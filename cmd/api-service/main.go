package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuongbtq/invoice-pipeline/internal/api/handler"
	"github.com/cuongbtq/invoice-pipeline/internal/api/router"
	"github.com/cuongbtq/invoice-pipeline/internal/bootstrap"
	"github.com/cuongbtq/invoice-pipeline/internal/jobquery"
	"github.com/cuongbtq/invoice-pipeline/internal/pipeline"
	"github.com/cuongbtq/invoice-pipeline/internal/queue"
	"github.com/cuongbtq/invoice-pipeline/internal/synonym"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := bootstrap.Logger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()
	slog.SetDefault(appLogger.Logger)

	logger := appLogger.Component("api")

	logger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, store, err := bootstrap.Database(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	logger.Info("Database connection established")

	rabbitClient, err := bootstrap.RabbitMQ(&cfg.RabbitMQ, logger)
	if err != nil {
		return err
	}
	defer rabbitClient.Close()

	logger.Info("RabbitMQ connection established")

	blobs, err := bootstrap.ObjectStore(ctx, &cfg.ObjectStorage, logger)
	if err != nil {
		return err
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := router.SetupRouter(&handler.Dependencies{
		Logger:    logger,
		Health:    dbClient,
		Submitter: pipeline.NewSubmitter(store, store, blobs, queue.NewPublisher(rabbitClient), logger),
		Jobs:      jobquery.NewService(store, logger),
		Synonyms:  synonym.NewService(store, logger),
		Limits: handler.Limits{
			MaxFiles:       cfg.Pipeline.MaxFiles,
			MaxUploadBytes: cfg.Pipeline.MaxUploadBytes,
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	logger.Info("API service is running",
		slog.String("address", addr),
		slog.Int("max_files", cfg.Pipeline.MaxFiles),
		slog.Int64("max_upload_bytes", cfg.Pipeline.MaxUploadBytes),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
