package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/internal/synonym"
)

// ProcessorConfig tunes a processing run
type ProcessorConfig struct {
	// FinalizeDelay is the pause between the finalizing checkpoint and done
	FinalizeDelay time.Duration
}

// Processor runs the processing phase of a claimed job
type Processor struct {
	jobs      JobStore
	docs      DocumentStore
	results   ResultStore
	synonyms  SynonymSource
	blobs     BlobStore
	extractor Extractor
	cfg       ProcessorConfig
	logger    *slog.Logger
}

// ProcessorDeps groups the collaborators of a Processor
type ProcessorDeps struct {
	Jobs      JobStore
	Documents DocumentStore
	Results   ResultStore
	Synonyms  SynonymSource
	Blobs     BlobStore
	Extractor Extractor
}

// NewProcessor creates a new Processor
func NewProcessor(deps ProcessorDeps, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	return &Processor{
		jobs:      deps.Jobs,
		docs:      deps.Documents,
		results:   deps.Results,
		synonyms:  deps.Synonyms,
		blobs:     deps.Blobs,
		extractor: deps.Extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// stageError names the step a run failed in
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return e.stage + ": " + e.err.Error()
}

func (e *stageError) Unwrap() error {
	return e.err
}

func failAt(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

// extraction holds the terms extracted from one document
type extraction struct {
	doc   domain.Document
	terms []domain.ExtractedTerm
}

// Run drives job to a terminal state. On failure the job is moved to error
// with a message naming the failed stage, and the cause is returned.
func (p *Processor) Run(ctx context.Context, job *domain.Job) error {
	logger := p.logger.With(slog.String("job_id", job.ID))
	start := time.Now()

	rows, err := p.run(ctx, job, logger)
	if err != nil {
		p.fail(ctx, job.ID, err, logger)
		return err
	}

	logger.Info("Job completed",
		slog.Int("records", rows),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Processor) run(ctx context.Context, job *domain.Job, logger *slog.Logger) (int, error) {
	progress := newProgressTracker(p.jobs, job)

	if err := progress.report(ctx, progressInitializing, "Initializing document extraction..."); err != nil {
		return 0, failAt("failed to update progress", err)
	}

	synonyms, err := p.synonyms.ListSynonyms(ctx)
	if err != nil {
		return 0, failAt("failed to load synonyms", err)
	}
	table := synonym.NewTable(synonyms)

	docs, err := p.docs.ListDocuments(ctx, job.ID)
	if err != nil {
		return 0, failAt("failed to list documents", err)
	}

	extractions := make([]extraction, 0, len(docs))
	for i, doc := range docs {
		terms, err := p.extract(ctx, doc)
		if err != nil {
			return 0, err
		}
		extractions = append(extractions, extraction{doc: doc, terms: terms})

		logger.Info("Document extracted",
			slog.String("file", doc.Name),
			slog.Int("terms", len(terms)),
		)

		message := fmt.Sprintf("Extracted data from %s (%d/%d)", doc.Name, i+1, len(docs))
		if err := progress.report(ctx, extractionProgress(i+1, len(docs)), message); err != nil {
			return 0, failAt("failed to update progress", err)
		}
	}

	if err := progress.report(ctx, progressMapping, "Mapping extracted terms to canonical fields..."); err != nil {
		return 0, failAt("failed to update progress", err)
	}
	rows := p.buildResults(job.ID, extractions, table, logger)

	if err := progress.report(ctx, progressSaving, "Saving extracted data..."); err != nil {
		return 0, failAt("failed to update progress", err)
	}
	if err := p.results.InsertResults(ctx, rows); err != nil {
		return 0, failAt("failed to save results", err)
	}

	if err := progress.report(ctx, progressFinalizing, "Finalizing..."); err != nil {
		return 0, failAt("failed to update progress", err)
	}
	if err := p.pause(ctx); err != nil {
		return 0, failAt("interrupted", err)
	}

	done := domain.JobUpdate{
		Status:             ptr(domain.JobStatusDone),
		Progress:           ptr(progressDone),
		Message:            ptr(summary(len(rows), job.FilesSubmitted)),
		DocumentsProcessed: ptr(job.FilesSubmitted),
		TotalRecords:       ptr(len(rows)),
	}
	if err := p.jobs.UpdateJob(context.WithoutCancel(ctx), job.ID, done); err != nil {
		return 0, failAt("failed to complete job", err)
	}

	return len(rows), nil
}

func (p *Processor) extract(ctx context.Context, doc domain.Document) ([]domain.ExtractedTerm, error) {
	data, err := p.download(ctx, doc.FilePath)
	if err != nil {
		return nil, failAt(fmt.Sprintf("failed to read %s", doc.Name), err)
	}

	terms, err := p.extractor.Extract(ctx, domain.File{
		Name:        doc.Name,
		ContentType: doc.ContentType,
		Data:        data,
	})
	if err != nil {
		return nil, failAt(fmt.Sprintf("extraction failed for %s", doc.Name), err)
	}

	return terms, nil
}

func (p *Processor) download(ctx context.Context, key string) ([]byte, error) {
	body, err := p.blobs.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return io.ReadAll(body)
}

func (p *Processor) buildResults(jobID string, extractions []extraction, table synonym.Table, logger *slog.Logger) []domain.Result {
	var rows []domain.Result
	for _, ex := range extractions {
		for _, term := range ex.terms {
			if strings.TrimSpace(term.Term) == "" {
				logger.Warn("Skipping extracted term without a name",
					slog.String("file", ex.doc.Name),
					slog.String("value", term.Value),
				)
				continue
			}

			page := term.Page
			if page < 1 {
				page = 1
			}

			rows = append(rows, domain.Result{
				JobID:        jobID,
				DocID:        ex.doc.ID,
				DocName:      ex.doc.Name,
				Page:         page,
				OriginalTerm: term.Term,
				Canonical:    synonym.Resolve(term.Term, table),
				Value:        term.Value,
				Confidence:   term.Confidence,
				Evidence:     term.Evidence,
			})
		}
	}
	return rows
}

func (p *Processor) pause(ctx context.Context) error {
	if p.cfg.FinalizeDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.cfg.FinalizeDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail records err on the job. The write ignores cancellation of ctx so a
// timed out or shut down run still ends in a terminal state.
func (p *Processor) fail(ctx context.Context, jobID string, err error, logger *slog.Logger) {
	logger.Error("Job failed", slog.Any("error", err))

	message := "Processing failed: " + err.Error()
	updErr := p.jobs.UpdateJob(context.WithoutCancel(ctx), jobID, domain.StatusUpdate(domain.JobStatusError, message))
	switch {
	case updErr == nil:
	case errors.Is(updErr, domain.ErrJobTerminal):
		logger.Warn("Job already terminal, failure not recorded")
	default:
		logger.Error("Failed to record job failure", slog.Any("error", updErr))
	}
}

func summary(records, files int) string {
	if records == 0 {
		return fmt.Sprintf("Completed: no financial terms were extracted from %d invoices", files)
	}
	return fmt.Sprintf("Completed: extracted %d records from %d invoices", records, files)
}

func ptr[T any](v T) *T {
	return &v
}
