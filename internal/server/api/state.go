package api

import (
	"net/http"

	"github.com/ayusman/holotree/internal/scene"
)

// StateHandler serves the current scene snapshot.
type StateHandler struct {
	scene *scene.Store
}

// NewStateHandler creates a StateHandler reading from sc.
func NewStateHandler(sc *scene.Store) *StateHandler {
	return &StateHandler{scene: sc}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.scene.Snapshot())
}
