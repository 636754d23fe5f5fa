package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/discovery/statistics"
	"github.com/yndnr/gridwire-go/internal/storage/metastore"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ClusterResponse is the body of GET /v1/cluster.
type ClusterResponse struct {
	LocalID         uuid.UUID   `json:"local_id"`
	Coordinator     uuid.UUID   `json:"coordinator"`
	TopologyVersion int64       `json:"topology_version"`
	Nodes           []uuid.UUID `json:"nodes"`
}

// PartitionsResponse is the body of GET /v1/partitions.
type PartitionsResponse struct {
	Partitions int                   `json:"partitions"`
	Version    int64                 `json:"version"`
	Owned      map[uuid.UUID][]int32 `json:"owned,omitempty"`
	Counts     map[uuid.UUID]int     `json:"counts"`
}

// MessageTypeInfo describes one registered wire type.
type MessageTypeInfo struct {
	Code   int16    `json:"code"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// RegisterTypeRequest is the body of POST /v1/metadata.
type RegisterTypeRequest struct {
	TypeID      int32    `json:"type_id"`
	TypeName    string   `json:"type_name"`
	Fields      []string `json:"fields,omitempty"`
	AffinityKey string   `json:"affinity_key,omitempty"`
}

// Meta converts the request to a store record.
func (r *RegisterTypeRequest) Meta() metastore.TypeMeta {
	return metastore.TypeMeta{
		TypeID:      r.TypeID,
		TypeName:    r.TypeName,
		Fields:      r.Fields,
		AffinityKey: r.AffinityKey,
	}
}

// RemoveTypeResponse is the body of DELETE /v1/metadata/{id}.
type RemoveTypeResponse struct {
	TypeID  int32 `json:"type_id"`
	Removed bool  `json:"removed"`
}

// CachesRequest is the body of the statistics operations.
type CachesRequest struct {
	Caches []string `json:"caches"`
}

// StatisticsResponse is the body of GET /v1/statistics.
type StatisticsResponse struct {
	Caches []statistics.CacheStats `json:"caches"`
}
