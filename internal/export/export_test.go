package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleRows = []domain.Result{
	{DocName: "a.pdf", Page: 1, OriginalTerm: "Discount", Canonical: "Trade Discount", Value: "50", Confidence: 90, Evidence: `"Disc" 50`},
	{DocName: "b, c.png", Page: 2, OriginalTerm: "VAT", Canonical: "Tax", Value: "1,200.00", Confidence: 75, Evidence: ""},
}

func TestCSV(t *testing.T) {
	want := "Document Name,Page,Original Term,Canonical Field,Value,Confidence,Evidence\n" +
		`"a.pdf",1,"Discount","Trade Discount","50",90,"""Disc"" 50"` + "\n" +
		`"b, c.png",2,"VAT","Tax","1,200.00",75,""`

	assert.Equal(t, want, string(CSV(sampleRows)))
}

func TestCSVHeaderOnly(t *testing.T) {
	assert.Equal(t, "Document Name,Page,Original Term,Canonical Field,Value,Confidence,Evidence", string(CSV(nil)))
}

func TestCSVIsDeterministic(t *testing.T) {
	assert.True(t, bytes.Equal(CSV(sampleRows), CSV(sampleRows)))
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleRows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"a.pdf", "1", "Discount", "Trade Discount", "50", "90", `"Disc" 50`}, rows[1])
	assert.Equal(t, "b, c.png", rows[2][0])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatCSV},
		{in: "csv", want: FormatCSV},
		{in: "XLSX", want: FormatXLSX},
		{in: "pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilenameAndContentType(t *testing.T) {
	assert.Equal(t, "finance_results_j1.csv", Filename("j1", FormatCSV))
	assert.Equal(t, "finance_results_j1.xlsx", Filename("j1", FormatXLSX))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}
