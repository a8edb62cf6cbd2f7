package processing

import (
	"context"

	"github.com/google/uuid"
)

// Trigger requests an analysis run for a document. Implemented by the
// pipeline dispatcher.
type Trigger interface {
	Request(ctx context.Context, documentID uuid.UUID) (bool, error)
}

// System defines the public contract for processing record operations.
// Transition is the sole mutator of in-flight records and the single
// enforcement point of the state machine; Reset is the only path out of a
// terminal state.
type System interface {
	Handler(trigger Trigger) *Handler

	Get(ctx context.Context, documentID uuid.UUID) (*Record, error)

	// Transition moves a record from expected to next, writing the payload
	// atomically with the status. Returns ok=false with no error when the
	// stored status no longer matches expected: a benign race, the caller's
	// result is stale and must be discarded.
	Transition(ctx context.Context, documentID uuid.UUID, expected, next Status, payload Payload) (bool, error)

	// Reset re-initializes a terminal record to pending, discarding the
	// prior result and error message in the same statement. Returns
	// ok=false when the record is not in a terminal state.
	Reset(ctx context.Context, documentID uuid.UUID) (bool, error)
}
