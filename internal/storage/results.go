package storage

import (
	"context"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

// resultBatchSize bounds the rows per INSERT statement. PostgreSQL allows
// at most 65535 bind parameters and each row uses nine.
const resultBatchSize = 500

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// InsertResults writes all rows in a single transaction. Either every row
// is visible afterwards or none is.
func (s *Storage) InsertResults(ctx context.Context, rows []domain.Result) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO results (
			job_id, doc_id, doc_name, page, original_term,
			canonical, value, confidence, evidence
		) VALUES (
			:job_id, :doc_id, :doc_name, :page, :original_term,
			:canonical, :value, :confidence, :evidence
		)
	`

	err := postgresql.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for start := 0; start < len(rows); start += resultBatchSize {
			end := min(start+resultBatchSize, len(rows))
			if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewPersistenceFailure("failed to insert results", err)
	}

	return nil
}

// ListResults returns the results of a job, most recent insert first. A
// non-empty search keeps rows whose original term, canonical field or
// document name contains it, ignoring case.
func (s *Storage) ListResults(ctx context.Context, jobID, search string) ([]domain.Result, error) {
	query := `
		SELECT
			id, job_id, doc_id, doc_name, page, original_term,
			canonical, value, confidence, evidence, created_at
		FROM results
		WHERE job_id = $1
	`
	args := []interface{}{jobID}

	if search = strings.TrimSpace(search); search != "" {
		query += ` AND (original_term ILIKE $2 OR canonical ILIKE $2 OR doc_name ILIKE $2)`
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
	}

	query += " ORDER BY created_at DESC, id DESC"

	results := []domain.Result{}
	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, domain.NewPersistenceFailure("failed to list results", err)
	}

	return results, nil
}
