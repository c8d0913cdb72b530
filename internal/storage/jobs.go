package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/google/uuid"
)

const jobColumns = `
	id, status, progress, message, files_submitted, documents_processed,
	total_records, worker_id, started_at, last_heartbeat_at, completed_at,
	created_at, updated_at`

// CreateJob inserts a new queued job
func (s *Storage) CreateJob(ctx context.Context, filesSubmitted int) (*domain.Job, error) {
	query := `
		INSERT INTO jobs (id, status, progress, message, files_submitted)
		VALUES ($1, $2, 0, '', $3)
		RETURNING` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, uuid.New().String(), domain.JobStatusQueued, filesSubmitted)
	if err != nil {
		return nil, domain.NewPersistenceFailure("failed to create job", err)
	}

	return &job, nil
}

// GetJob returns the job with the given id
func (s *Storage) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT` + jobColumns + ` FROM jobs WHERE id = $1`

	var job domain.Job
	if err := s.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, domain.NewPersistenceFailure("failed to get job", err)
	}

	return &job, nil
}

// UpdateJob merges upd into a non-terminal job. Moving to a terminal status
// stamps completed_at.
func (s *Storage) UpdateJob(ctx context.Context, id string, upd domain.JobUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		set("status", *upd.Status)
		if upd.Status.IsTerminal() {
			sets = append(sets, "completed_at = NOW()")
		}
	}
	if upd.Progress != nil {
		set("progress", *upd.Progress)
	}
	if upd.Message != nil {
		set("message", *upd.Message)
	}
	if upd.DocumentsProcessed != nil {
		set("documents_processed", *upd.DocumentsProcessed)
	}
	if upd.TotalRecords != nil {
		set("total_records", *upd.TotalRecords)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE jobs SET %s WHERE id = $%d AND status NOT IN ('done', 'error')",
		strings.Join(sets, ", "),
		len(args),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewPersistenceFailure("failed to update job", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.NewPersistenceFailure("failed to get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Nothing matched: either the job is unknown or already terminal
	if _, err := s.GetJob(ctx, id); err != nil {
		return err
	}
	return domain.ErrJobTerminal
}

// ClaimJob assigns a running job to workerID using an optimistic update.
// Only one worker can ever claim a job.
func (s *Storage) ClaimJob(ctx context.Context, id, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET worker_id = $1,
		    started_at = NOW(),
		    last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE id = $2
		  AND status = $3
		  AND worker_id IS NULL
		RETURNING` + jobColumns

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, workerID, id, domain.JobStatusRunning)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim job - already claimed or not running",
				slog.String("job_id", id),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, domain.NewPersistenceFailure("failed to claim job", err)
	}

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", id),
		slog.String("worker_id", workerID),
	)

	return &job, nil
}

// TouchJobHeartbeat updates last_heartbeat_at for a running job
func (s *Storage) TouchJobHeartbeat(ctx context.Context, id string) error {
	query := `
		UPDATE jobs
		SET last_heartbeat_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, domain.JobStatusRunning)
	if err != nil {
		return domain.NewPersistenceFailure("failed to update job heartbeat", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.NewPersistenceFailure("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job heartbeat update - no rows affected (job may not be running)",
			slog.String("job_id", id),
		)
	}

	return nil
}

// FailStaleJobs moves claimed running jobs whose heartbeat is older than
// staleBefore to error and returns how many were moved
func (s *Storage) FailStaleJobs(ctx context.Context, staleBefore time.Time, message string) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE status = $3
		  AND worker_id IS NOT NULL
		  AND last_heartbeat_at < $4
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusError, message, domain.JobStatusRunning, staleBefore)
	if err != nil {
		return 0, domain.NewPersistenceFailure("failed to fail stale jobs", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewPersistenceFailure("failed to get rows affected", err)
	}
	return n, nil
}

// ListJobs returns jobs newest first. It fetches one row past the page size
// so callers can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	query := `SELECT` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, domain.NewPersistenceFailure("failed to list jobs", err)
	}

	return jobs, nil
}
