// Package bootstrap turns the loaded configuration into the clients both
// services share.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/invoice-pipeline/internal/config"
	"github.com/cuongbtq/invoice-pipeline/internal/storage"
	"github.com/cuongbtq/invoice-pipeline/shared/logger"
	"github.com/cuongbtq/invoice-pipeline/shared/objectstore"
	"github.com/cuongbtq/invoice-pipeline/shared/postgresql"
	"github.com/cuongbtq/invoice-pipeline/shared/rabbitmq"
	"github.com/joho/godotenv"
)

// LoadConfig reads .env (when present) and the YAML file at path
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Logger builds the application logger
func Logger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   cfg.TimeFormat,
	})
}

// PostgresConfig maps the database section onto the client config
func PostgresConfig(cfg *config.DatabaseConfig) *postgresql.Config {
	return &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
}

// Database connects to PostgreSQL and applies the schema
func Database(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, *storage.Storage, error) {
	client, err := postgresql.NewClient(PostgresConfig(cfg), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := storage.NewStorage(client.GetDB(), logger)
	if err := store.Migrate(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return client, store, nil
}

// RabbitMQConfig maps the rabbitmq section onto the client config
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		DeadLetterExchange: cfg.Queue.DeadLetterExchange,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}
}

// RabbitMQ connects and declares the task topology
func RabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	client, err := rabbitmq.NewClient(RabbitMQConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	return client, nil
}

// S3Config maps the object_storage section onto the store config
func S3Config(cfg *config.ObjectStorageConfig) *objectstore.S3Config {
	return &objectstore.S3Config{
		Endpoint:     cfg.Endpoint,
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		Bucket:       cfg.Bucket,
		UseSSL:       cfg.UseSSL,
		UsePathStyle: cfg.UsePathStyle,
		CreateBucket: cfg.CreateBucket,
	}
}

// ObjectStore builds the S3 store, creating the bucket when configured to
func ObjectStore(ctx context.Context, cfg *config.ObjectStorageConfig, logger *slog.Logger) (*objectstore.S3Store, error) {
	s3cfg := S3Config(cfg)
	store, err := objectstore.NewS3Store(ctx, s3cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	if s3cfg.CreateBucket {
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}
