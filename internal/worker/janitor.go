package worker

import (
	"context"
	"log/slog"
	"time"
)

// runJanitor fails running jobs whose heartbeat went stale, so a crashed
// worker never leaves a job running forever
func (w *Worker) runJanitor(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.StaleCheckInterval)
	defer ticker.Stop()

	w.sweepStaleJobs(ctx)
	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepStaleJobs(ctx)
		}
	}
}

func (w *Worker) sweepStaleJobs(ctx context.Context) {
	staleBefore := w.now().Add(-w.cfg.StaleAfter)

	n, err := w.store.FailStaleJobs(ctx, staleBefore, StaleJobMessage)
	if err != nil {
		w.logger.Error("Failed to sweep stale jobs", slog.Any("error", err))
		return
	}
	if n > 0 {
		w.logger.Warn("Failed stale jobs",
			slog.Int64("count", n),
			slog.Time("stale_before", staleBefore),
		)
	}
}
