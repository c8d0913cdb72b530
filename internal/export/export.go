// Package export renders job results as downloadable tables.
package export

import (
	"fmt"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Columns is the fixed column order of every export
var Columns = []string{
	"Document Name",
	"Page",
	"Original Term",
	"Canonical Field",
	"Value",
	"Confidence",
	"Evidence",
}

// ParseFormat accepts "csv" (the default for an empty string) and "xlsx"
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", domain.NewInvalidInput(fmt.Sprintf("unsupported export format %q", s))
}

// ContentType returns the MIME type of files in format f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename returns the download name for a job export
func Filename(jobID string, f Format) string {
	return fmt.Sprintf("finance_results_%s.%s", jobID, f)
}

// Render encodes rows in format f
func Render(rows []domain.Result, f Format) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return XLSX(rows)
	case FormatCSV:
		return CSV(rows), nil
	}
	return nil, domain.NewInvalidInput(fmt.Sprintf("unsupported export format %q", f))
}
