package documents

import (
	"net/url"

	"github.com/JaimeStill/almanac/pkg/query"
	"github.com/JaimeStill/almanac/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("document_type", "DocumentType").
	Project("filename", "Filename").
	Project("mime_type", "MimeType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries. Nil
// fields are ignored. DocumentType and MimeType use exact matching; Title and
// Filename use case-insensitive contains matching.
type Filters struct {
	DocumentType *string `json:"document_type,omitempty"`
	Title        *string `json:"title,omitempty"`
	Filename     *string `json:"filename,omitempty"`
	MimeType     *string `json:"mime_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentType", f.DocumentType).
		WhereContains("Title", f.Title).
		WhereContains("Filename", f.Filename).
		WhereEquals("MimeType", f.MimeType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if dt := values.Get("document_type"); dt != "" {
		if t, err := ParseType(dt); err == nil {
			s := string(t)
			f.DocumentType = &s
		}
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if mt := values.Get("mime_type"); mt != "" {
		f.MimeType = &mt
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Title,
		&d.DocumentType,
		&d.Filename,
		&d.MimeType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.UploadedAt,
		&d.UpdatedAt,
	)
	return d, err
}
