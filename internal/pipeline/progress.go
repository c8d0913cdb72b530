package pipeline

import (
	"context"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// Progress checkpoints of a processing run
const (
	progressInitializing = 5
	progressExtractStart = 10
	progressExtractEnd   = 70
	progressMapping      = 75
	progressSaving       = 85
	progressFinalizing   = 95
	progressDone         = 100
)

// progressTracker writes progress updates and never reports a value lower
// than one it already reported
type progressTracker struct {
	jobs  JobStore
	jobID string
	last  int
}

func newProgressTracker(jobs JobStore, job *domain.Job) *progressTracker {
	return &progressTracker{
		jobs:  jobs,
		jobID: job.ID,
		last:  job.Progress,
	}
}

func (t *progressTracker) report(ctx context.Context, progress int, message string) error {
	progress = max(progress, t.last)
	progress = min(progress, progressDone)
	if err := t.jobs.UpdateJob(ctx, t.jobID, domain.ProgressUpdate(progress, message)); err != nil {
		return err
	}
	t.last = progress
	return nil
}

// extractionProgress interpolates linearly between the extraction floor and
// ceiling as documents complete
func extractionProgress(done, total int) int {
	if total <= 0 {
		return progressExtractEnd
	}
	return progressExtractStart + done*(progressExtractEnd-progressExtractStart)/total
}
