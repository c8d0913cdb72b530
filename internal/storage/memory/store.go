// Package memory provides in-process implementations of the storage ports.
// They back unit tests and mirror the semantics of the PostgreSQL store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/google/uuid"
)

// Store keeps jobs, documents, results and synonyms in maps
type Store struct {
	mu         sync.RWMutex
	jobs       map[string]*domain.Job
	documents  map[string][]domain.Document
	results    map[string][]domain.Result
	synonyms   map[string]*domain.Synonym
	nextResult int64
	now        func() time.Time
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		jobs:      make(map[string]*domain.Job),
		documents: make(map[string][]domain.Document),
		results:   make(map[string][]domain.Result),
		synonyms:  make(map[string]*domain.Synonym),
		now:       time.Now,
	}
}

// SetClock overrides the time source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CreateJob inserts a queued job
func (s *Store) CreateJob(ctx context.Context, filesSubmitted int) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &domain.Job{
		ID:             uuid.New().String(),
		Status:         domain.JobStatusQueued,
		FilesSubmitted: filesSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.jobs[job.ID] = job

	out := *job
	return &out, nil
}

// GetJob returns a copy of the job
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	out := *job
	return &out, nil
}

// UpdateJob merges a partial update; terminal jobs are immutable
func (s *Store) UpdateJob(ctx context.Context, id string, upd domain.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobTerminal
	}

	upd.Apply(job)
	job.UpdatedAt = s.now()
	if job.Status.IsTerminal() {
		completed := job.UpdatedAt
		job.CompletedAt = &completed
	}
	return nil
}

// ClaimJob assigns a running, unclaimed job to workerID
func (s *Store) ClaimJob(ctx context.Context, id, workerID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status != domain.JobStatusRunning || job.WorkerID != nil {
		return nil, domain.ErrJobAlreadyClaimed
	}

	now := s.now()
	owner := workerID
	job.WorkerID = &owner
	job.StartedAt = &now
	job.LastHeartbeatAt = &now
	job.UpdatedAt = now

	out := *job
	return &out, nil
}

// TouchJobHeartbeat refreshes the heartbeat of a running job
func (s *Store) TouchJobHeartbeat(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok && job.Status == domain.JobStatusRunning {
		now := s.now()
		job.LastHeartbeatAt = &now
	}
	return nil
}

// FailStaleJobs moves claimed running jobs with an old heartbeat to error
func (s *Store) FailStaleJobs(ctx context.Context, staleBefore time.Time, message string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := s.now()
	for _, job := range s.jobs {
		if job.Status != domain.JobStatusRunning || job.WorkerID == nil || job.LastHeartbeatAt == nil {
			continue
		}
		if !job.LastHeartbeatAt.Before(staleBefore) {
			continue
		}
		job.Status = domain.JobStatusError
		job.Message = message
		job.UpdatedAt = now
		job.CompletedAt = &now
		n++
	}
	return n, nil
}

// ListJobs returns jobs newest first, one past the page size
func (s *Store) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if c := filter.Cursor; c != nil {
			if job.CreatedAt.After(c.CreatedAt) || (job.CreatedAt.Equal(c.CreatedAt) && job.ID >= c.JobID) {
				continue
			}
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID > jobs[j].ID
	})

	if filter.PageSize > 0 && len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}
	return jobs, nil
}

// CreateDocument inserts a document row
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[doc.JobID]; !ok {
		return domain.ErrJobNotFound
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.CreatedAt = s.now()
	s.documents[doc.JobID] = append(s.documents[doc.JobID], *doc)
	return nil
}

// ListDocuments returns the documents of a job in submission order
func (s *Store) ListDocuments(ctx context.Context, jobID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := append([]domain.Document(nil), s.documents[jobID]...)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Position < docs[j].Position })
	return docs, nil
}

// InsertResults appends all rows atomically
func (s *Store) InsertResults(ctx context.Context, rows []domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := range rows {
		s.nextResult++
		rows[i].ID = s.nextResult
		rows[i].CreatedAt = now
		s.results[rows[i].JobID] = append(s.results[rows[i].JobID], rows[i])
	}
	return nil
}

// ListResults returns results newest first, optionally filtered by a
// case-insensitive search over term, canonical and document name
func (s *Store) ListResults(ctx context.Context, jobID, search string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(search))
	var out []domain.Result
	for _, r := range s.results[jobID] {
		if q != "" &&
			!strings.Contains(strings.ToLower(r.OriginalTerm), q) &&
			!strings.Contains(strings.ToLower(r.Canonical), q) &&
			!strings.Contains(strings.ToLower(r.DocName), q) {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListSynonyms returns synonyms ordered by term
func (s *Store) ListSynonyms(ctx context.Context) ([]domain.Synonym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Synonym, 0, len(s.synonyms))
	for _, syn := range s.synonyms {
		out = append(out, *syn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TermKey < out[j].TermKey })
	return out, nil
}

// UpsertSynonym inserts syn, or updates the row with the same term key
func (s *Store) UpsertSynonym(ctx context.Context, syn *domain.Synonym) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, existing := range s.synonyms {
		if existing.TermKey == syn.TermKey {
			existing.Term = syn.Term
			existing.Canonical = syn.Canonical
			existing.UpdatedAt = now
			*syn = *existing
			return false, nil
		}
	}

	syn.ID = uuid.New().String()
	syn.CreatedAt = now
	syn.UpdatedAt = now
	stored := *syn
	s.synonyms[syn.ID] = &stored
	return true, nil
}

// UpdateSynonym replaces term and canonical of an existing row
func (s *Store) UpdateSynonym(ctx context.Context, syn *domain.Synonym) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.synonyms[syn.ID]
	if !ok {
		return domain.ErrSynonymNotFound
	}
	for id, other := range s.synonyms {
		if id != syn.ID && other.TermKey == syn.TermKey {
			return domain.NewConflict("another synonym already uses this term", nil)
		}
	}

	existing.Term = syn.Term
	existing.TermKey = syn.TermKey
	existing.Canonical = syn.Canonical
	existing.UpdatedAt = s.now()
	*syn = *existing
	return nil
}

// DeleteSynonym removes a row
func (s *Store) DeleteSynonym(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.synonyms[id]; !ok {
		return domain.ErrSynonymNotFound
	}
	delete(s.synonyms, id)
	return nil
}
