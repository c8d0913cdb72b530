// Package jobquery is the read side of the pipeline: status polling, job
// history, results and exports.
package jobquery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/internal/export"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrNoResults distinguishes a finished job with zero rows from an unknown job
var ErrNoResults = domain.NewNotFound("No results found for this job. The job may have completed but no data was extracted.")

// Store is the read model the service queries
type Store interface {
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error)
	ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error)
	ListResults(ctx context.Context, jobID, search string) ([]domain.Result, error)
}

// JobPage is one page of job history
type JobPage struct {
	Jobs       []domain.Job
	NextCursor *domain.JobCursor
}

// File is a rendered export
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Service answers job queries
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new Service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// GetStatus returns the job in any state
func (s *Service) GetStatus(ctx context.Context, id string) (*domain.Job, error) {
	if !validID(id) {
		return nil, domain.ErrJobNotFound
	}
	return s.store.GetJob(ctx, id)
}

// ListJobs returns one page of jobs, newest first. NextCursor is set when
// more jobs follow.
func (s *Service) ListJobs(ctx context.Context, filter domain.JobFilter) (*JobPage, error) {
	switch filter.Status {
	case "", domain.JobStatusQueued, domain.JobStatusRunning, domain.JobStatusDone, domain.JobStatusError:
	default:
		return nil, domain.NewInvalidInput(fmt.Sprintf("unknown job status %q", filter.Status))
	}

	filter.PageSize = clampPageSize(filter.PageSize)

	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &JobPage{Jobs: jobs}
	if len(jobs) > filter.PageSize {
		page.Jobs = jobs[:filter.PageSize]
		last := page.Jobs[len(page.Jobs)-1]
		page.NextCursor = &domain.JobCursor{CreatedAt: last.CreatedAt, JobID: last.ID}
	}
	return page, nil
}

// ListDocuments returns the documents of a job in submission order
func (s *Service) ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error) {
	if _, err := s.GetStatus(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, jobID)
}

// GetResults returns the results of a finished job, newest first, optionally
// filtered by a case-insensitive search over term, canonical field and
// document name.
func (s *Service) GetResults(ctx context.Context, jobID, search string) ([]domain.Result, error) {
	if err := s.requireDone(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListResults(ctx, jobID, search)
}

// Export renders every result of a finished job in the given format
func (s *Service) Export(ctx context.Context, jobID string, format export.Format) (*File, error) {
	if err := s.requireDone(ctx, jobID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListResults(ctx, jobID, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}

	data, err := export.Render(rows, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	s.logger.Info("Export rendered",
		slog.String("job_id", jobID),
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)),
	)

	return &File{
		Name:        export.Filename(jobID, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func (s *Service) requireDone(ctx context.Context, jobID string) error {
	job, err := s.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != domain.JobStatusDone {
		return domain.NewPreconditionFailed(fmt.Sprintf("Job is still %s. Please wait for processing to complete.", job.Status))
	}
	return nil
}

func clampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
