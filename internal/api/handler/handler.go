package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/internal/export"
	"github.com/cuongbtq/invoice-pipeline/internal/jobquery"
	"github.com/cuongbtq/invoice-pipeline/internal/pipeline"
)

// Submitter runs the submission phase of a batch
type Submitter interface {
	Submit(ctx context.Context, uploads []pipeline.Upload) (*domain.Job, error)
}

// JobQuery answers job reads
type JobQuery interface {
	GetStatus(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) (*jobquery.JobPage, error)
	ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error)
	GetResults(ctx context.Context, jobID, search string) ([]domain.Result, error)
	Export(ctx context.Context, jobID string, format export.Format) (*jobquery.File, error)
}

// SynonymService manages the synonym table
type SynonymService interface {
	List(ctx context.Context) ([]domain.Synonym, error)
	Create(ctx context.Context, term, canonical string) (*domain.Synonym, bool, error)
	Update(ctx context.Context, id, term, canonical string) (*domain.Synonym, error)
	Delete(ctx context.Context, id string) error
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Limits bounds a submission request
type Limits struct {
	MaxFiles       int
	MaxUploadBytes int64
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Health    HealthChecker
	Submitter Submitter
	Jobs      JobQuery
	Synonyms  SynonymService
	Limits    Limits
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger    *slog.Logger
	submitter Submitter
	jobs      JobQuery
	limits    Limits
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		submitter: deps.Submitter,
		jobs:      deps.Jobs,
		limits:    deps.Limits,
	}
}

// SynonymHandler handles synonym CRUD requests
type SynonymHandler struct {
	logger   *slog.Logger
	synonyms SynonymService
}

// NewSynonymHandler creates a new SynonymHandler instance
func NewSynonymHandler(deps *Dependencies) *SynonymHandler {
	return &SynonymHandler{
		logger:   deps.Logger,
		synonyms: deps.Synonyms,
	}
}
