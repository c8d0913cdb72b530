package storage

import (
	"context"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/shared/postgresql"
	"github.com/google/uuid"
)

// CreateDocument inserts a document row for an uploaded file
func (s *Storage) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusUploaded
	}

	query := `
		INSERT INTO documents (
			id, job_id, position, name, file_path,
			file_size, content_type, status
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8
		)
		RETURNING created_at
	`

	err := s.db.QueryRowxContext(ctx, query,
		doc.ID,
		doc.JobID,
		doc.Position,
		doc.Name,
		doc.FilePath,
		doc.FileSize,
		doc.ContentType,
		doc.Status,
	).Scan(&doc.CreatedAt)
	if err != nil {
		if postgresql.IsForeignKeyViolation(err) {
			return domain.ErrJobNotFound
		}
		return domain.NewPersistenceFailure("failed to create document", err)
	}

	return nil
}

// ListDocuments returns the documents of a job in submission order
func (s *Storage) ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error) {
	query := `
		SELECT
			id, job_id, position, name, file_path,
			file_size, content_type, status, created_at
		FROM documents
		WHERE job_id = $1
		ORDER BY position ASC, created_at ASC
	`

	docs := []domain.Document{}
	if err := s.db.SelectContext(ctx, &docs, query, jobID); err != nil {
		return nil, domain.NewPersistenceFailure("failed to list documents", err)
	}

	return docs, nil
}
