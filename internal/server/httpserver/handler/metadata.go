package handler

import (
	"net/http"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.cfg.Types.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, types)
}

func (h *Handler) handleGetType(w http.ResponseWriter, r *http.Request) {
	id, err := pathTypeID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	meta, err := h.cfg.Types.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, meta)
}

// handleRegisterType stores a type on this node only.
func (h *Handler) handleRegisterType(w http.ResponseWriter, r *http.Request) {
	var req RegisterTypeRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if req.TypeName == "" {
		h.handleServiceError(w, r, domain.ErrBadRequest.Detailf("type_name is required"))
		return
	}
	meta := req.Meta()
	if err := h.cfg.Types.Put(r.Context(), meta); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("type registered", "type_id", meta.TypeID, "type_name", meta.TypeName)
	h.writeJSON(w, r, http.StatusCreated, meta)
}

// handleRemoveType runs the two-phase removal and waits for the outcome.
func (h *Handler) handleRemoveType(w http.ResponseWriter, r *http.Request) {
	id, err := pathTypeID(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	subj, err := subject(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ctx, cancel := h.operationContext(r)
	defer cancel()
	if err := h.cfg.Metadata.RemoveType(ctx, id, subj); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("type removed", "type_id", id, "subject", subj)
	h.writeJSON(w, r, http.StatusOK, &RemoveTypeResponse{TypeID: id, Removed: true})
}
