package synonym

import (
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// Heuristic lookup keys, consulted only when the exact term has no mapping
const (
	keySubtotal = "subtotal"
	keyDiscount = "discount"
	keyTax      = "tax"
)

// Table maps a normalized term to its canonical field name
type Table map[string]string

// NewTable builds a snapshot table from synonym rows
func NewTable(synonyms []domain.Synonym) Table {
	table := make(Table, len(synonyms))
	for _, s := range synonyms {
		table[NormalizeTerm(s.Term)] = s.Canonical
	}
	return table
}

// NormalizeTerm case-folds and trims a term; it is the identity of a synonym
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Resolve maps rawTerm to a canonical field name.
//
// An exact match on the normalized term wins. Otherwise the fallback rules
// are tried in order: subtotal, discount, then tax (unless the term mentions
// gst). A matching rule consults the table under its own key. When nothing
// resolves, rawTerm is returned as given.
func Resolve(rawTerm string, table Table) string {
	term := NormalizeTerm(rawTerm)

	if canonical, ok := table.lookup(term); ok {
		return canonical
	}

	switch {
	case strings.Contains(term, "subtotal") || term == "sub total" || term == "sub-total":
		return table.lookupOr(keySubtotal, rawTerm)
	case strings.Contains(term, "discount"):
		return table.lookupOr(keyDiscount, rawTerm)
	case strings.Contains(term, "tax") && !strings.Contains(term, "gst"):
		return table.lookupOr(keyTax, rawTerm)
	}

	return rawTerm
}

// lookup treats an empty mapped value as absent
func (t Table) lookup(key string) (string, bool) {
	canonical, ok := t[key]
	if !ok || canonical == "" {
		return "", false
	}
	return canonical, true
}

func (t Table) lookupOr(key, fallback string) string {
	if canonical, ok := t.lookup(key); ok {
		return canonical
	}
	return fallback
}
