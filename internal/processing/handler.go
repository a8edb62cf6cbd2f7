package processing

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/pkg/handlers"
	"github.com/JaimeStill/almanac/pkg/routes"
)

// Handler provides HTTP endpoints for processing status and analysis
// triggering.
type Handler struct {
	sys     System
	trigger Trigger
	logger  *slog.Logger
}

// NewHandler creates a Handler with the given system, trigger, and logger.
func NewHandler(sys System, trigger Trigger, logger *slog.Logger) *Handler {
	return &Handler{
		sys:     sys,
		trigger: trigger,
		logger:  logger.With("handler", "processing"),
	}
}

// Routes returns the route group definition for processing endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/processing",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Get},
			{Method: "POST", Pattern: "/{id}/analyze", Handler: h.Analyze},
		},
	}
}

// Get returns the processing record for a document.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rec, err := h.sys.Get(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// TriggerResponse reports whether an analysis request was accepted.
type TriggerResponse struct {
	Accepted bool `json:"accepted"`
}

// Analyze requests a new analysis run for a document. Idempotent against
// in-flight runs: a document already queued or processing yields
// accepted=false rather than an error.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	accepted, err := h.trigger.Request(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
	}

	handlers.RespondJSON(w, status, TriggerResponse{Accepted: accepted})
}
