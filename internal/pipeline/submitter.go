package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

const maxObjectNameLength = 100

// Upload is one file of a submission
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Submitter runs the submission phase of a batch
type Submitter struct {
	jobs   JobStore
	docs   DocumentStore
	blobs  BlobStore
	queue  Enqueuer
	logger *slog.Logger
}

// NewSubmitter creates a new Submitter
func NewSubmitter(jobs JobStore, docs DocumentStore, blobs BlobStore, queue Enqueuer, logger *slog.Logger) *Submitter {
	return &Submitter{
		jobs:   jobs,
		docs:   docs,
		blobs:  blobs,
		queue:  queue,
		logger: logger,
	}
}

// Submit creates a job for uploads, stores every file it can, moves the job
// to running and schedules it. Files that fail to store are logged and
// dropped; the batch continues without them.
func (s *Submitter) Submit(ctx context.Context, uploads []Upload) (*domain.Job, error) {
	if len(uploads) == 0 {
		return nil, domain.NewInvalidInput("no files provided")
	}

	job, err := s.jobs.CreateJob(ctx, len(uploads))
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	logger := s.logger.With(slog.String("job_id", job.ID))
	logger.Info("Job created", slog.Int("files", len(uploads)))

	stored := 0
	for i, up := range uploads {
		if err := s.storeDocument(ctx, job.ID, i, up); err != nil {
			logger.Error("Failed to store document, skipping",
				slog.String("file", up.Name),
				slog.Int("position", i),
				slog.Any("error", err),
			)
			continue
		}
		stored++
	}

	message := fmt.Sprintf("Processing %d of %d uploaded invoices...", stored, len(uploads))
	if err := s.jobs.UpdateJob(ctx, job.ID, domain.StatusUpdate(domain.JobStatusRunning, message)); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	job.Status = domain.JobStatusRunning
	job.Message = message

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		logger.Error("Failed to schedule job", slog.Any("error", err))

		failure := domain.StatusUpdate(domain.JobStatusError, "Failed to schedule processing")
		if updErr := s.jobs.UpdateJob(context.WithoutCancel(ctx), job.ID, failure); updErr != nil {
			logger.Error("Failed to mark unscheduled job as error", slog.Any("error", updErr))
		}
		return nil, domain.NewUpstreamFailure("failed to schedule processing", err)
	}

	logger.Info("Job scheduled",
		slog.Int("stored", stored),
		slog.Int("submitted", len(uploads)),
	)

	return job, nil
}

func (s *Submitter) storeDocument(ctx context.Context, jobID string, position int, up Upload) error {
	body, err := up.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer body.Close()

	key := ObjectKey(jobID, position, up.Name)
	if err := s.blobs.Upload(ctx, key, body, up.Size, up.ContentType); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	doc := &domain.Document{
		JobID:       jobID,
		Position:    position,
		Name:        up.Name,
		FilePath:    key,
		FileSize:    up.Size,
		ContentType: up.ContentType,
		Status:      domain.DocumentStatusUploaded,
	}
	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned object",
				slog.String("key", key),
				slog.Any("error", delErr),
			)
		}
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// ObjectKey returns the blob key of the file at position within a job
func ObjectKey(jobID string, position int, name string) string {
	return fmt.Sprintf("jobs/%s/%d-%s", jobID, position, sanitizeName(name))
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxObjectNameLength {
			break
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}
