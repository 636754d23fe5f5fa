package command

import (
	"time"

	"github.com/google/uuid"
)

// Admin API payloads as the CLI decodes them.

type clusterView struct {
	LocalID         uuid.UUID   `json:"local_id"`
	Coordinator     uuid.UUID   `json:"coordinator"`
	TopologyVersion int64       `json:"topology_version"`
	Nodes           []uuid.UUID `json:"nodes"`
}

type partitionsView struct {
	Partitions int                   `json:"partitions"`
	Version    int64                 `json:"version"`
	Owned      map[uuid.UUID][]int32 `json:"owned,omitempty"`
	Counts     map[uuid.UUID]int     `json:"counts"`
}

type messageType struct {
	Code   int16    `json:"code"`
	Name   string   `json:"name"`
	Fields []string `json:"fields" table:"wide"`
}

type typeMeta struct {
	TypeID       int32     `json:"type_id"`
	TypeName     string    `json:"type_name"`
	Fields       []string  `json:"fields,omitempty"`
	AffinityKey  string    `json:"affinity_key,omitempty"`
	RegisteredAt time.Time `json:"registered_at" table:"wide"`
}

type registerTypeRequest struct {
	TypeID      int32    `json:"type_id"`
	TypeName    string   `json:"type_name"`
	Fields      []string `json:"fields,omitempty"`
	AffinityKey string   `json:"affinity_key,omitempty"`
}

type removeTypeResult struct {
	TypeID  int32 `json:"type_id"`
	Removed bool  `json:"removed"`
}

type cachesRequest struct {
	Caches []string `json:"caches"`
}

type cacheStats struct {
	Cache     string    `json:"cache"`
	Enabled   bool      `json:"enabled"`
	Clears    int       `json:"clears"`
	ClearedAt time.Time `json:"cleared_at,omitempty"`
}

type statisticsView struct {
	Caches []cacheStats `json:"caches"`
}

type healthView struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time,omitempty"`
}
