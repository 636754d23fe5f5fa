package handler

import (
	"net/http"
	"time"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.cfg.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports ready once this node sees itself in the ring.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Cluster != nil {
		local := h.cfg.Cluster.LocalID()
		for _, id := range h.cfg.Cluster.Order() {
			if id == local {
				h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
				return
			}
		}
	}
	h.writeError(w, r, http.StatusServiceUnavailable, "GW-SYS-5030", "node has not joined the ring")
}
