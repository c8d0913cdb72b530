package domain

import "time"

// Synonym maps a raw term to a canonical financial field
type Synonym struct {
	ID        string    `db:"id"`
	Term      string    `db:"term"`
	TermKey   string    `db:"term_key"`
	Canonical string    `db:"canonical"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
