// Package documents implements the document domain for Almanac. It provides
// types, data access, and business logic for document upload, classification
// metadata, and blob storage integration.
package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies a document for analysis. The classification selects the
// field schema the analysis service is asked to fill.
type Type string

// Recognized document types.
const (
	TypeContract       Type = "CONTRACT"
	TypeReport         Type = "REPORT"
	TypePolicy         Type = "POLICY"
	TypePresentation   Type = "PRESENTATION"
	TypeAgreement      Type = "AGREEMENT"
	TypeCorrespondence Type = "CORRESPONDENCE"
	TypeInvoice        Type = "INVOICE"
	TypeOther          Type = "OTHER"
)

var documentTypes = map[Type]struct{}{
	TypeContract:       {},
	TypeReport:         {},
	TypePolicy:         {},
	TypePresentation:   {},
	TypeAgreement:      {},
	TypeCorrespondence: {},
	TypeInvoice:        {},
	TypeOther:          {},
}

// ParseType validates a document type string, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := documentTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// Valid reports whether t is a recognized document type.
func (t Type) Valid() bool {
	_, ok := documentTypes[t]
	return ok
}

// Document represents a registered document with its metadata and blob
// storage reference. MimeType is stored as uploaded; normalization happens at
// extraction time.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	DocumentType Type      `json:"document_type"`
	Filename     string    `json:"filename"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	StorageKey   string    `json:"storage_key"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// document. Data holds the raw file bytes. PageCount is optional and may be
// extracted by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data         []byte
	Title        string
	DocumentType Type
	Filename     string
	MimeType     string
	PageCount    *int
}
