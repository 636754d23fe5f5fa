package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/gridwire-go/internal/core/domain"
	"github.com/yndnr/gridwire-go/internal/discovery/statistics"
	"github.com/yndnr/gridwire-go/internal/storage/metastore"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/wire"
)

// SubjectHeader carries the security subject an operation runs on behalf of.
const SubjectHeader = "X-Security-Subject"

// DefaultRequestTimeout bounds operations that wait for a ring pass.
const DefaultRequestTimeout = 30 * time.Second

// MetadataService removes binary types cluster-wide.
type MetadataService interface {
	RemoveType(ctx context.Context, typeID int32, subject uuid.UUID) error
	Removed() int64
}

// TypeStore is the node-local binary metadata.
type TypeStore interface {
	Put(ctx context.Context, meta metastore.TypeMeta) error
	Get(ctx context.Context, id int32) (metastore.TypeMeta, error)
	List(ctx context.Context) ([]metastore.TypeMeta, error)
}

// StatisticsService changes cache statistics cluster-wide.
type StatisticsService interface {
	SetEnabled(ctx context.Context, caches []string, enabled bool, subject uuid.UUID) error
	Clear(ctx context.Context, caches []string, subject uuid.UUID) error
	Table() *statistics.Table
}

// Cluster is the ring view.
type Cluster interface {
	LocalID() uuid.UUID
	Order() []uuid.UUID
	Coordinator() uuid.UUID
	TopologyVersion() int64
}

// Partitions is the partition assignment view.
type Partitions interface {
	Partitions() int
	Version() int64
	Owned() map[uuid.UUID][]int32
}

// Config wires the handler to the node.
type Config struct {
	Metadata   MetadataService
	Types      TypeStore
	Statistics StatisticsService
	Cluster    Cluster
	Partitions Partitions
	Registry   *wire.Registry

	Version        string
	RequestTimeout time.Duration
	Logger         logger.Logger
}

// Handler serves the admin API.
type Handler struct {
	cfg    Config
	log    logger.Logger
	mux    *http.ServeMux
	routes []string
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	h := &Handler{
		cfg: cfg,
		log: cfg.Logger.With("component", "admin"),
		mux: http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.handle("GET /health", h.handleHealth)
	h.handle("GET /ready", h.handleReady)

	h.handle("GET /v1/cluster", h.handleCluster)
	h.handle("GET /v1/partitions", h.handlePartitions)
	h.handle("GET /v1/messages", h.handleMessageTypes)

	h.handle("GET /v1/metadata", h.handleListTypes)
	h.handle("POST /v1/metadata", h.handleRegisterType)
	h.handle("GET /v1/metadata/{id}", h.handleGetType)
	h.handle("DELETE /v1/metadata/{id}", h.handleRemoveType)

	h.handle("GET /v1/statistics", h.handleListStatistics)
	h.handle("POST /v1/statistics/enable", h.handleSetStatistics(true))
	h.handle("POST /v1/statistics/disable", h.handleSetStatistics(false))
	h.handle("POST /v1/statistics/clear", h.handleClearStatistics)
}

func (h *Handler) handle(pattern string, fn http.HandlerFunc) {
	h.mux.HandleFunc(pattern, fn)
	h.routes = append(h.routes, pattern)
}

// Routes returns every registered pattern in registration order.
func (h *Handler) Routes() []string {
	return append([]string(nil), h.routes...)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteError(w, getRequestID(r), status, code, message)
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, requestID string, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, nil))
}

// handleServiceError converts an operation error to a response.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = domain.ErrTimeout.WithCause(err)
	}
	if code := domain.GetErrorCode(err); code != "" {
		h.writeError(w, r, StatusForCode(code), code, err.Error())
		return
	}
	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error")
}

// StatusForCode maps a domain error code to an HTTP status.
func StatusForCode(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 {
		return http.StatusInternalServerError
	}
	switch code[i+1:] {
	case "4000", "4001", "4002", "4004":
		return http.StatusBadRequest
	case "4010":
		return http.StatusUnauthorized
	case "4040":
		return http.StatusNotFound
	case "4090":
		return http.StatusConflict
	case "4150":
		return http.StatusUnsupportedMediaType
	case "4220":
		return http.StatusUnprocessableEntity
	case "4290":
		return http.StatusTooManyRequests
	case "5030":
		return http.StatusServiceUnavailable
	case "5040":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// operationContext bounds a ring operation.
func (h *Handler) operationContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
}

func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// subject reads the optional security subject header.
func subject(r *http.Request) (uuid.UUID, error) {
	v := r.Header.Get(SubjectHeader)
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, domain.ErrBadRequest.Detailf("%s: %v", SubjectHeader, err)
	}
	return id, nil
}

func pathTypeID(r *http.Request) (int32, error) {
	v, err := strconv.ParseInt(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, domain.ErrBadRequest.Detailf("type id %q", r.PathValue("id"))
	}
	return int32(v), nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrBadRequest.Detailf("invalid request body: %v", err)
	}
	return nil
}
