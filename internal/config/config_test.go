package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "invoices_db", cfg.Database.Database)
				assert.Equal(t, "invoice_jobs_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "invoice_jobs_queue", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, "invoice_jobs_dlx", cfg.RabbitMQ.Queue.DeadLetterExchange)
				assert.Equal(t, "invoice-api-service", cfg.App.Name)
				assert.Equal(t, "invoices", cfg.ObjectStorage.Bucket)
				assert.True(t, cfg.ObjectStorage.UsePathStyle)
				assert.Equal(t, "gpt-4o-mini", cfg.Extractor.Model)
				assert.Equal(t, 90*time.Second, cfg.Extractor.Timeout)
				assert.Equal(t, 20, cfg.Pipeline.MaxFiles)
				assert.Equal(t, int64(50<<20), cfg.Pipeline.MaxUploadBytes)
				assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.FinalizeDelay)
				assert.Equal(t, 2*time.Minute, cfg.Worker.StaleAfter)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("INVOICE_TEST_DB_PASSWORD", "s3cret")
	t.Setenv("INVOICE_TEST_API_KEY", "sk-test")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "sk-test", cfg.Extractor.APIKey)
}

func TestLoadUnsetEnvIsEmpty(t *testing.T) {
	t.Setenv("INVOICE_TEST_API_KEY", "")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	assert.Empty(t, cfg.Extractor.APIKey)
}

func validAPIConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "invoices_db",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
			Exchange: ExchangeConfig{
				Name: "invoice_jobs_exchange",
			},
			Queue: QueueConfig{
				Name: "invoice_jobs_queue",
			},
		},
		ObjectStorage: ObjectStorageConfig{
			Endpoint: "localhost:9000",
			Bucket:   "invoices",
		},
	}
}

func validWorkerConfig() *Config {
	cfg := validAPIConfig()
	cfg.Extractor = ExtractorConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"}
	cfg.Worker = WorkerConfig{
		Concurrency:        2,
		JobTimeout:         time.Minute,
		HeartbeatInterval:  5 * time.Second,
		StaleAfter:         time.Minute,
		StaleCheckInterval: 30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
	return cfg
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "invalid server port - too low", mutate: func(c *Config) { c.Server.Port = 0 }, errString: "invalid server port"},
		{name: "invalid server port - too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errString: "invalid server port"},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "invalid database port", mutate: func(c *Config) { c.Database.Port = 0 }, errString: "invalid database port"},
		{name: "empty database name", mutate: func(c *Config) { c.Database.Database = "" }, errString: "database name is required"},
		{name: "empty rabbitmq host", mutate: func(c *Config) { c.RabbitMQ.Host = "" }, errString: "rabbitmq host is required"},
		{name: "empty exchange name", mutate: func(c *Config) { c.RabbitMQ.Exchange.Name = "" }, errString: "rabbitmq exchange name is required"},
		{name: "empty queue name", mutate: func(c *Config) { c.RabbitMQ.Queue.Name = "" }, errString: "rabbitmq queue name is required"},
		{name: "empty bucket", mutate: func(c *Config) { c.ObjectStorage.Bucket = "" }, errString: "object_storage bucket is required"},
		{name: "empty endpoint", mutate: func(c *Config) { c.ObjectStorage.Endpoint = "" }, errString: "object_storage endpoint is required"},
		{name: "negative max files", mutate: func(c *Config) { c.Pipeline.MaxFiles = -1 }, errString: "max_files"},
		{name: "negative upload cap", mutate: func(c *Config) { c.Pipeline.MaxUploadBytes = -1 }, errString: "max_upload_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)
			err := cfg.ValidateAPIConfig()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "server port not needed", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "missing extractor url", mutate: func(c *Config) { c.Extractor.BaseURL = "" }, errString: "extractor base_url is required"},
		{name: "missing extractor model", mutate: func(c *Config) { c.Extractor.Model = "" }, errString: "extractor model is required"},
		{name: "negative finalize delay", mutate: func(c *Config) { c.Pipeline.FinalizeDelay = -time.Second }, errString: "finalize_delay"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Worker.Concurrency = 0 }, errString: "worker concurrency"},
		{name: "zero job timeout", mutate: func(c *Config) { c.Worker.JobTimeout = 0 }, errString: "job_timeout"},
		{name: "zero heartbeat", mutate: func(c *Config) { c.Worker.HeartbeatInterval = 0 }, errString: "heartbeat_interval"},
		{name: "stale not above heartbeat", mutate: func(c *Config) { c.Worker.StaleAfter = c.Worker.HeartbeatInterval }, errString: "stale_after"},
		{name: "zero stale check", mutate: func(c *Config) { c.Worker.StaleCheckInterval = 0 }, errString: "stale_check_interval"},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Worker.ShutdownTimeout = 0 }, errString: "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validWorkerConfig()
			tt.mutate(cfg)
			err := cfg.ValidateWorkerConfig()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.ValidateAPIConfig())
		require.NoError(t, cfg.ValidateWorkerConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database", func(t *testing.T) {
		cfg, err := Load("testdata/missing_database.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})

	t.Run("load worker config with stale window below heartbeat", func(t *testing.T) {
		cfg, err := Load("testdata/stale_before_heartbeat.yaml")
		require.NoError(t, err)

		err = cfg.ValidateWorkerConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale_after")
	})
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}
