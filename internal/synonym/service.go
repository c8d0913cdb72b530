package synonym

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/google/uuid"
)

// Store persists synonym rows
type Store interface {
	ListSynonyms(ctx context.Context) ([]domain.Synonym, error)
	// UpsertSynonym inserts or, on a term_key collision, updates the canonical
	// value of the existing row. created reports which happened.
	UpsertSynonym(ctx context.Context, s *domain.Synonym) (created bool, err error)
	UpdateSynonym(ctx context.Context, s *domain.Synonym) error
	DeleteSynonym(ctx context.Context, id string) error
}

// Service manages the user-editable synonym table
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new synonym Service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// List returns all synonyms
func (s *Service) List(ctx context.Context) ([]domain.Synonym, error) {
	synonyms, err := s.store.ListSynonyms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list synonyms: %w", err)
	}
	return synonyms, nil
}

// Create adds a mapping, or updates the existing mapping for the same
// case-folded term. created is false when an existing row was updated.
func (s *Service) Create(ctx context.Context, term, canonical string) (*domain.Synonym, bool, error) {
	syn, err := newSynonym(term, canonical)
	if err != nil {
		return nil, false, err
	}

	created, err := s.store.UpsertSynonym(ctx, syn)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save synonym: %w", err)
	}

	s.logger.Info("Synonym saved",
		slog.String("synonym_id", syn.ID),
		slog.String("term", syn.Term),
		slog.String("canonical", syn.Canonical),
		slog.Bool("created", created),
	)

	return syn, created, nil
}

// Update replaces term and canonical of an existing synonym
func (s *Service) Update(ctx context.Context, id, term, canonical string) (*domain.Synonym, error) {
	if !validID(id) {
		return nil, domain.ErrSynonymNotFound
	}

	syn, err := newSynonym(term, canonical)
	if err != nil {
		return nil, err
	}
	syn.ID = id

	if err := s.store.UpdateSynonym(ctx, syn); err != nil {
		return nil, fmt.Errorf("failed to update synonym: %w", err)
	}

	s.logger.Info("Synonym updated",
		slog.String("synonym_id", id),
		slog.String("term", syn.Term),
	)

	return syn, nil
}

// Delete removes a synonym
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrSynonymNotFound
	}

	if err := s.store.DeleteSynonym(ctx, id); err != nil {
		return fmt.Errorf("failed to delete synonym: %w", err)
	}

	s.logger.Info("Synonym deleted", slog.String("synonym_id", id))
	return nil
}

func newSynonym(term, canonical string) (*domain.Synonym, error) {
	term = strings.TrimSpace(term)
	canonical = strings.TrimSpace(canonical)
	if term == "" || canonical == "" {
		return nil, domain.NewInvalidInput("term and canonical are required")
	}

	return &domain.Synonym{
		Term:      term,
		TermKey:   NormalizeTerm(term),
		Canonical: canonical,
	}, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
