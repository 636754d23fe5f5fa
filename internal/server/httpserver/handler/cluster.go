package handler

import (
	"net/http"

	"github.com/google/uuid"
)

func (h *Handler) handleCluster(w http.ResponseWriter, r *http.Request) {
	c := h.cfg.Cluster
	h.writeJSON(w, r, http.StatusOK, &ClusterResponse{
		LocalID:         c.LocalID(),
		Coordinator:     c.Coordinator(),
		TopologyVersion: c.TopologyVersion(),
		Nodes:           c.Order(),
	})
}

func (h *Handler) handlePartitions(w http.ResponseWriter, r *http.Request) {
	p := h.cfg.Partitions
	owned := p.Owned()
	counts := make(map[uuid.UUID]int, len(owned))
	for id, parts := range owned {
		counts[id] = len(parts)
	}
	resp := &PartitionsResponse{
		Partitions: p.Partitions(),
		Version:    p.Version(),
		Counts:     counts,
	}
	if r.URL.Query().Get("detail") == "true" {
		resp.Owned = owned
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleMessageTypes lists the wire registry ordered by code.
func (h *Handler) handleMessageTypes(w http.ResponseWriter, r *http.Request) {
	types := h.cfg.Registry.Types()
	out := make([]MessageTypeInfo, 0, len(types))
	for _, t := range types {
		info := MessageTypeInfo{Code: t.Code, Name: t.Name, Fields: make([]string, len(t.Fields))}
		for i, f := range t.Fields {
			info.Fields[i] = f.Name + ":" + f.Kind.String()
		}
		out = append(out, info)
	}
	h.writeJSON(w, r, http.StatusOK, out)
}
