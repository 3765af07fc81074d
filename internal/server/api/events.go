package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/holotree/internal/store"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 200
)

// EventSource lists recent mode transitions.
type EventSource interface {
	ModeEvents(limit int) ([]*store.ModeEvent, error)
}

// EventsHandler serves GET /api/events.
type EventsHandler struct {
	source EventSource
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(source EventSource) *EventsHandler {
	return &EventsHandler{source: source}
}

type listEventsResponse struct {
	Events []*store.ModeEvent `json:"events"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.source.ModeEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []*store.ModeEvent{}
	}

	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
