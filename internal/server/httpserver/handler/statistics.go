package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

func (h *Handler) handleListStatistics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, &StatisticsResponse{Caches: h.cfg.Statistics.Table().Snapshot()})
}

func (h *Handler) handleSetStatistics(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caches, subj, ok := h.cachesRequest(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.operationContext(r)
		defer cancel()
		if err := h.cfg.Statistics.SetEnabled(ctx, caches, enabled, subj); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		logger.L(r.Context()).Info("statistics mode changed", "caches", caches, "enabled", enabled)
		h.writeJSON(w, r, http.StatusOK, h.statsFor(caches))
	}
}

func (h *Handler) handleClearStatistics(w http.ResponseWriter, r *http.Request) {
	caches, subj, ok := h.cachesRequest(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.operationContext(r)
	defer cancel()
	if err := h.cfg.Statistics.Clear(ctx, caches, subj); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("statistics cleared", "caches", caches)
	h.writeJSON(w, r, http.StatusOK, h.statsFor(caches))
}

func (h *Handler) cachesRequest(w http.ResponseWriter, r *http.Request) ([]string, uuid.UUID, bool) {
	var req CachesRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return nil, uuid.Nil, false
	}
	subj, err := subject(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, uuid.Nil, false
	}
	return req.Caches, subj, true
}

// statsFor returns the local state of caches after an operation.
func (h *Handler) statsFor(caches []string) *StatisticsResponse {
	table := h.cfg.Statistics.Table()
	resp := &StatisticsResponse{}
	for _, c := range caches {
		if s, ok := table.Get(c); ok {
			resp.Caches = append(resp.Caches, s)
		}
	}
	return resp
}
