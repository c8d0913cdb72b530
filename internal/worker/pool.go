package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool starts cfg.Concurrency worker goroutines
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.cfg.Concurrency),
	)
}

func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	logger := w.logger.With(slog.String("worker_name", fmt.Sprintf("%s-%d", w.cfg.WorkerID, workerNum)))
	logger.Debug("Worker goroutine started")

	for {
		select {
		case <-w.stopChan:
			logger.Debug("Worker goroutine stopping - stopped")
			return

		case <-ctx.Done():
			logger.Debug("Worker goroutine stopping - context canceled")
			return

		case msg := <-w.jobsChan:
			w.settle(msg, w.processJob(ctx, msg), logger)
		}
	}
}

// settle acknowledges the delivery of msg according to the processing outcome
func (w *Worker) settle(msg *JobMessage, err error, logger *slog.Logger) {
	logger = logger.With(slog.String("job_id", msg.JobID))

	if err != nil && shouldRequeue(err) {
		logger.Warn("Job not started, requeueing", slog.Any("error", err))
		if nackErr := msg.Delivery.Nack(false, true); nackErr != nil {
			logger.Error("Failed to NACK message", slog.Any("error", nackErr))
		}
		return
	}

	if err != nil {
		logger.Error("Job processing failed", slog.Any("error", err))
	}
	if ackErr := msg.Delivery.Ack(false); ackErr != nil {
		logger.Error("Failed to ACK message", slog.Any("error", ackErr))
	}
}
