package processing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is the 1:1 processing state of a document. AnalysisResult holds the
// validated analysis JSON once a run completes; ErrorMessage holds the
// human-readable failure or warning text. A new analysis run overwrites the
// prior terminal result.
type Record struct {
	DocumentID     uuid.UUID       `json:"document_id"`
	Status         Status          `json:"status"`
	AnalysisResult json.RawMessage `json:"analysis_result,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	UpdatedAt      time.Time       `json:"last_updated_at"`
}

// Payload carries the fields written alongside a status transition. Nil
// fields clear the stored values, so a transition always leaves the record
// describing only the run that produced it.
type Payload struct {
	AnalysisResult json.RawMessage
	ErrorMessage   *string
}
