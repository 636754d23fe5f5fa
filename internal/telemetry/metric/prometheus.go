package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/gridwire-go/internal/infra/buildinfo"
)

// Namespace prefixes every gridwire metric.
const Namespace = "gridwire"

// Registerer is implemented by component metric sets.
type Registerer interface {
	Register(prometheus.Registerer) error
}

// RegisterFunc adapts a function to Registerer.
type RegisterFunc func(prometheus.Registerer) error

// Register calls f.
func (f RegisterFunc) Register(r prometheus.Registerer) error { return f(r) }

// NewRegistry creates a registry with the Go runtime, process and build
// info collectors, then registers each component set.
func NewRegistry(info buildinfo.Info, sets ...Registerer) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	build := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information; the value is always 1",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
		},
	})
	build.Set(1)

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		build,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, s := range sets {
		if s == nil {
			continue
		}
		if err := s.Register(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Handler serves g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// HTTPMetrics counts admin API requests. A nil *HTTPMetrics records nothing.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates unregistered request metrics.
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Admin API requests by route and status",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin API request latency by route",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"route"}),
	}
}

// Register adds the metrics to registry.
func (m *HTTPMetrics) Register(registry prometheus.Registerer) error {
	if err := registry.Register(m.requests); err != nil {
		return err
	}
	return registry.Register(m.duration)
}

// Observe records one request.
func (m *HTTPMetrics) Observe(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}
