package domain

import "time"

// ExtractedTerm is one raw tuple returned by the extraction engine
type ExtractedTerm struct {
	Page       int
	Term       string
	Value      string
	Confidence int
	Evidence   string
}

// Extraction groups the terms extracted from one document
type Extraction struct {
	Filename string
	Results  []ExtractedTerm
}

// Result is a persisted, canonicalized line item
type Result struct {
	ID           int64     `db:"id"`
	JobID        string    `db:"job_id"`
	DocID        string    `db:"doc_id"`
	DocName      string    `db:"doc_name"`
	Page         int       `db:"page"`
	OriginalTerm string    `db:"original_term"`
	Canonical    string    `db:"canonical"`
	Value        string    `db:"value"`
	Confidence   int       `db:"confidence"`
	Evidence     string    `db:"evidence"`
	CreatedAt    time.Time `db:"created_at"`
}
