package processing

import (
	"errors"
	"net/http"
)

// Domain errors for processing record operations.
var (
	ErrNotFound          = errors.New("processing record not found")
	ErrInvalidStatus     = errors.New("invalid processing status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// MapHTTPStatus maps processing domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidStatus) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrIllegalTransition) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
