package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/shared/postgresql"
	"github.com/google/uuid"
)

const synonymColumns = `id, term, term_key, canonical, created_at, updated_at`

// ListSynonyms returns every synonym ordered by term
func (s *Storage) ListSynonyms(ctx context.Context) ([]domain.Synonym, error) {
	query := `SELECT ` + synonymColumns + ` FROM synonyms ORDER BY term_key ASC`

	synonyms := []domain.Synonym{}
	if err := s.db.SelectContext(ctx, &synonyms, query); err != nil {
		return nil, domain.NewPersistenceFailure("failed to list synonyms", err)
	}

	return synonyms, nil
}

// UpsertSynonym inserts syn or updates the row sharing its term_key.
// syn is filled from the stored row.
func (s *Storage) UpsertSynonym(ctx context.Context, syn *domain.Synonym) (bool, error) {
	query := `
		INSERT INTO synonyms (id, term, term_key, canonical)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (term_key) DO UPDATE
		SET term = EXCLUDED.term,
		    canonical = EXCLUDED.canonical,
		    updated_at = NOW()
		RETURNING ` + synonymColumns + `, (xmax = 0) AS inserted
	`

	var row struct {
		domain.Synonym
		Inserted bool `db:"inserted"`
	}
	err := s.db.GetContext(ctx, &row, query, uuid.New().String(), syn.Term, syn.TermKey, syn.Canonical)
	if err != nil {
		return false, domain.NewPersistenceFailure("failed to upsert synonym", err)
	}

	*syn = row.Synonym
	return row.Inserted, nil
}

// UpdateSynonym replaces term and canonical of the row with syn.ID
func (s *Storage) UpdateSynonym(ctx context.Context, syn *domain.Synonym) error {
	query := `
		UPDATE synonyms
		SET term = $1,
		    term_key = $2,
		    canonical = $3,
		    updated_at = NOW()
		WHERE id = $4
		RETURNING ` + synonymColumns

	err := s.db.GetContext(ctx, syn, query, syn.Term, syn.TermKey, syn.Canonical, syn.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return domain.ErrSynonymNotFound
		case postgresql.IsUniqueViolation(err):
			return domain.NewConflict("another synonym already uses this term", err)
		}
		return domain.NewPersistenceFailure("failed to update synonym", err)
	}

	return nil
}

// DeleteSynonym removes the row with the given id
func (s *Storage) DeleteSynonym(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM synonyms WHERE id = $1`, id)
	if err != nil {
		return domain.NewPersistenceFailure("failed to delete synonym", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.NewPersistenceFailure("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return domain.ErrSynonymNotFound
	}

	return nil
}
