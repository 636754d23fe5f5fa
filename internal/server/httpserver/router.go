package httpserver

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/yndnr/gridwire-go/internal/server/httpserver/handler"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	Handler *handler.Handler

	// Token, when set, is required on every /v1 route.
	Token string

	// RateLimit is requests per second across all clients; zero disables.
	RateLimit float64
	Burst     int

	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Metrics  *metric.HTTPMetrics

	Logger logger.Logger
}

// NewRouter builds the admin mux.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "http")

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	mux := http.NewServeMux()
	open := []Middleware{RequestID(log), Recover(log), Instrument(cfg.Metrics)}
	admin := []Middleware{
		RequestID(log),
		Recover(log),
		AccessLog(),
		Instrument(cfg.Metrics),
		RateLimit(limiter),
		TokenAuth(cfg.Token),
	}

	for _, pattern := range cfg.Handler.Routes() {
		if isAdminRoute(pattern) {
			mux.Handle(pattern, Chain(cfg.Handler, admin...))
		} else {
			mux.Handle(pattern, Chain(cfg.Handler, open...))
		}
	}
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", Chain(metric.Handler(cfg.Gatherer), Recover(log)))
	}
	return mux
}

func isAdminRoute(pattern string) bool {
	_, path, _ := strings.Cut(pattern, " ")
	return strings.HasPrefix(path, "/v1/")
}
