package metastore

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments a Store. A nil *Metrics records nothing.
type Metrics struct {
	stored  prometheus.Counter
	removed prometheus.Counter
	gcRuns  prometheus.Counter
}

// RegisterMetrics creates the store metrics, registers them together with
// size gauges read from Badger, and attaches them to s.
func (s *Store) RegisterMetrics(registry prometheus.Registerer) error {
	m := &Metrics{
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "metastore",
			Name:      "types_stored_total",
			Help:      "Type metadata writes",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "metastore",
			Name:      "types_removed_total",
			Help:      "Type metadata entries removed",
		}),
		gcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridwire",
			Subsystem: "metastore",
			Name:      "gc_runs_total",
			Help:      "Value log garbage collection runs",
		}),
	}
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "gridwire",
		Subsystem: "metastore",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		l, _ := s.db.Size()
		return float64(l)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "gridwire",
		Subsystem: "metastore",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, v := s.db.Size()
		return float64(v)
	})

	for _, c := range []prometheus.Collector{m.stored, m.removed, m.gcRuns, lsm, vlog} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	s.metrics = m
	return nil
}

func (m *Metrics) typeStored() {
	if m != nil {
		m.stored.Inc()
	}
}

func (m *Metrics) typeRemoved() {
	if m != nil {
		m.removed.Inc()
	}
}

func (m *Metrics) gcRan() {
	if m != nil {
		m.gcRuns.Inc()
	}
}
