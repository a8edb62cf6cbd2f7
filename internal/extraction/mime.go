// Package extraction normalizes MIME types and converts document content to
// analyzable plain text.
package extraction

import "strings"

// Canonical MIME types produced by Normalize. Downstream dispatch only ever
// sees these values or an unrecognized passthrough.
const (
	MimePDF         = "application/pdf"
	MimeWord        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeSpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeHTML        = "text/html"
	MimeJSON        = "application/json"
	MimeText        = "text/plain"
)

// Normalize maps an upstream MIME string to a canonical type. Matching is
// case-insensitive and substring based because browsers and external
// integrations supply inconsistent values ("application/x-pdf", "Excel.Sheet",
// bare "pdf"). Unrecognized types pass through unchanged; they surface as
// unsupported during extraction rather than failing here. Canonical values map
// to themselves, so Normalize is idempotent.
func Normalize(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(mime, "pdf"):
		return MimePDF
	case strings.Contains(mime, "sheet"),
		strings.Contains(mime, "xls"),
		strings.Contains(mime, "excel"):
		return MimeSpreadsheet
	case strings.Contains(mime, "word"),
		strings.Contains(mime, "doc"):
		return MimeWord
	case strings.Contains(mime, "html"):
		return MimeHTML
	case strings.Contains(mime, "json"):
		return MimeJSON
	case strings.Contains(mime, "csv"),
		strings.Contains(mime, "text"),
		strings.Contains(mime, "plain"):
		return MimeText
	default:
		return raw
	}
}
