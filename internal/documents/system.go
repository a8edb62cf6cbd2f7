package documents

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/pkg/pagination"
)

// Trigger requests an analysis run for a document. Implemented by the
// pipeline dispatcher; declared here so the handler can kick off analysis on
// upload without depending on the pipeline package.
type Trigger interface {
	// Request returns accepted=false when the document is already queued or
	// processing, or when no worker slot is available.
	Request(ctx context.Context, documentID uuid.UUID) (bool, error)
}

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64, trigger Trigger) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Content streams the document's bytes from blob storage. The caller
	// must close the reader.
	Content(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
}
