// Package pipeline drives an invoice batch from upload to persisted,
// canonicalized results.
//
// Submission (Submitter) runs on the request path: it stores the files and
// hands the job to the task queue. Processing (Processor) runs on a worker
// after the job has been claimed and always ends in a terminal state.
package pipeline

import (
	"context"
	"io"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// JobStore persists the job lifecycle record
type JobStore interface {
	CreateJob(ctx context.Context, filesSubmitted int) (*domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	UpdateJob(ctx context.Context, id string, upd domain.JobUpdate) error
}

// DocumentStore persists uploaded document metadata
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *domain.Document) error
	ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error)
}

// ResultStore persists result rows in one atomic batch
type ResultStore interface {
	InsertResults(ctx context.Context, rows []domain.Result) error
}

// SynonymSource provides the synonym table snapshot
type SynonymSource interface {
	ListSynonyms(ctx context.Context) ([]domain.Synonym, error)
}

// BlobStore holds the raw uploaded bytes
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Extractor turns one document into raw financial terms
type Extractor interface {
	Extract(ctx context.Context, file domain.File) ([]domain.ExtractedTerm, error)
}

// Enqueuer schedules a job for processing
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}
