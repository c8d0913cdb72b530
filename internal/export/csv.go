package export

import (
	"strconv"
	"strings"

	"github.com/cuongbtq/invoice-pipeline/internal/domain"
)

// CSV renders rows with a header line. Textual fields are always quoted
// with embedded quotes doubled; page and confidence are bare integers.
// Lines are joined by "\n" with no trailing newline.
func CSV(rows []domain.Result) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(Columns, ","))

	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(quote(r.DocName))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(r.Page))
		b.WriteByte(',')
		b.WriteString(quote(r.OriginalTerm))
		b.WriteByte(',')
		b.WriteString(quote(r.Canonical))
		b.WriteByte(',')
		b.WriteString(quote(r.Value))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(r.Confidence))
		b.WriteByte(',')
		b.WriteString(quote(r.Evidence))
	}

	return []byte(b.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
