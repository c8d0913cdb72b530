// Package worker consumes job ids from RabbitMQ and runs each claimed job
// on a bounded goroutine pool.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StaleJobMessage is recorded on jobs whose worker stopped heartbeating
const StaleJobMessage = "Processing interrupted: worker stopped responding"

// Source delivers task messages
type Source interface {
	Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error)
}

// JobStore is the subset of job storage a worker needs
type JobStore interface {
	ClaimJob(ctx context.Context, id, workerID string) (*domain.Job, error)
	TouchJobHeartbeat(ctx context.Context, id string) error
	FailStaleJobs(ctx context.Context, staleBefore time.Time, message string) (int64, error)
}

// Runner drives a claimed job to a terminal state
type Runner interface {
	Run(ctx context.Context, job *domain.Job) error
}

// Config holds worker configuration
type Config struct {
	WorkerID           string
	Concurrency        int
	PrefetchCount      int
	JobTimeout         time.Duration
	HeartbeatInterval  time.Duration
	StaleAfter         time.Duration
	StaleCheckInterval time.Duration
}

// Worker represents the background job worker
type Worker struct {
	cfg      Config
	source   Source
	store    JobStore
	runner   Runner
	logger   *slog.Logger
	jobsChan chan *JobMessage
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
	now      func() time.Time
}

// NewWorker creates a new worker instance
func NewWorker(cfg Config, source Source, store JobStore, runner Runner, logger *slog.Logger) *Worker {
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker-" + uuid.New().String()[:8]
	}
	cfg.Concurrency = max(cfg.Concurrency, 1)
	if cfg.PrefetchCount <= 0 {
		cfg.PrefetchCount = cfg.Concurrency
	}

	return &Worker{
		cfg:      cfg,
		source:   source,
		store:    store,
		runner:   runner,
		logger:   logger.With(slog.String("worker_id", cfg.WorkerID)),
		jobsChan: make(chan *JobMessage),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start consumes and processes jobs until ctx is canceled. It returns an
// error if the consumer cannot be set up or the broker closes the delivery
// channel.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.cfg.Concurrency),
		slog.Int("prefetch", w.cfg.PrefetchCount),
		slog.Duration("job_timeout", w.cfg.JobTimeout),
	)

	deliveries, err := w.source.Consume(w.cfg.WorkerID, w.cfg.PrefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.spawnWorkerPool(ctx)

	if w.cfg.StaleCheckInterval > 0 && w.cfg.StaleAfter > 0 {
		w.wg.Add(1)
		go w.runJanitor(ctx)
	}

	if !w.dispatch(ctx, deliveries) {
		return fmt.Errorf("rabbitmq delivery channel closed")
	}

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop waits for in-flight jobs to finish. Call it after canceling the
// context passed to Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("Worker stopped")
	})
}
