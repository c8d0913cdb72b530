package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// processJob claims the job named by msg and runs it under the job timeout
// with a heartbeat. A job someone else owns, or that no longer exists, is
// skipped without error.
func (w *Worker) processJob(ctx context.Context, msg *JobMessage) error {
	logger := w.logger.With(slog.String("job_id", msg.JobID))

	job, err := w.store.ClaimJob(ctx, msg.JobID, w.cfg.WorkerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			logger.Warn("Job already claimed or not running, skipping")
			return nil
		}
		return NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	logger.Info("Processing job")

	jobCtx := ctx
	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}

	heartbeatDone := make(chan struct{})
	go w.sendJobHeartbeat(jobCtx, job.ID, heartbeatDone)
	defer close(heartbeatDone)

	if err := w.runner.Run(jobCtx, job); err != nil {
		return fmt.Errorf("job failed: %w", err)
	}

	return nil
}

// sendJobHeartbeat periodically updates the job's heartbeat timestamp
func (w *Worker) sendJobHeartbeat(ctx context.Context, jobID string, done <-chan struct{}) {
	if w.cfg.HeartbeatInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.TouchJobHeartbeat(ctx, jobID); err != nil {
				w.logger.Warn("Failed to update job heartbeat",
					slog.String("job_id", jobID),
					slog.Any("error", err),
				)
			}
		}
	}
}
