// Package processing implements the processing record domain: the per-document
// pipeline status, its analysis result, and the state machine that governs
// transitions between them.
package processing

import (
	"fmt"
	"strings"
)

// Status is the pipeline state of a document's processing record.
type Status string

// Pipeline states. Pending and Queued are both "not yet started": Queued
// means a worker slot has been requested, Pending means it has not.
const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusWarning    Status = "warning"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusQueued, StatusProcessing, StatusFailed},
	StatusQueued:     {StatusProcessing, StatusFailed, StatusPending},
	StatusProcessing: {StatusCompleted, StatusWarning, StatusFailed},
	StatusCompleted:  {},
	StatusWarning:    {},
	StatusFailed:     {},
}

// ParseStatus validates a status string, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Terminal reports whether s is a terminal state. Terminal records only
// change through an explicit Reset.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWarning, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is legal. Queued may
// roll back to Pending when no worker slot could be claimed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}
