package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/gridwire-go/internal/discovery"
	"github.com/yndnr/gridwire-go/internal/discovery/metadata"
	"github.com/yndnr/gridwire-go/internal/discovery/statistics"
	"github.com/yndnr/gridwire-go/internal/exchange"
	"github.com/yndnr/gridwire-go/internal/infra/buildinfo"
	"github.com/yndnr/gridwire-go/internal/infra/confloader"
	"github.com/yndnr/gridwire-go/internal/infra/shutdown"
	"github.com/yndnr/gridwire-go/internal/infra/tlsroots"
	"github.com/yndnr/gridwire-go/internal/query/value"
	"github.com/yndnr/gridwire-go/internal/server/config"
	"github.com/yndnr/gridwire-go/internal/server/httpserver"
	"github.com/yndnr/gridwire-go/internal/server/httpserver/handler"
	"github.com/yndnr/gridwire-go/internal/storage/metastore"
	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
	"github.com/yndnr/gridwire-go/internal/telemetry/metric"
	"github.com/yndnr/gridwire-go/internal/wire"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("gridwire-node " + buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := new(slog.LevelVar)
	log, err := initLogger(cfg, level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting gridwire-node",
		"version", buildinfo.Version,
		"config", *configFile)

	id, err := config.NodeID(cfg)
	if err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	log = log.With("node_id", id.String())

	sh := shutdown.NewHandler(shutdownTimeout, log)

	store, err := metastore.Open(config.MetastoreConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("open metastore: %w", err)
	}
	sh.OnShutdown("metastore", func(context.Context) error { return store.Close() })

	wireMetrics := wire.NewMetrics()
	ringMetrics := discovery.NewMetrics()
	httpMetrics := metric.NewHTTPMetrics()

	reg, marsh, err := buildRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	transport, err := discovery.NewMemberlistTransport(config.MemberlistConfig(cfg, id,
		discovery.NodeMeta{Version: buildinfo.Version, AdminAddr: cfg.Admin.Addr}, log))
	if err != nil {
		return fmt.Errorf("start gossip: %w", err)
	}
	sh.OnShutdown("gossip", func(ctx context.Context) error {
		if err := transport.Leave(5 * time.Second); err != nil {
			log.Warn("leave cluster", "error", err)
		}
		return transport.Shutdown()
	})

	ring, err := discovery.NewRing(discovery.RingConfig{
		Transport:          transport,
		Registry:           reg,
		Marshaller:         marsh,
		WireOptions:        config.WireOptions(cfg, wireMetrics),
		InboxSize:          cfg.Cluster.InboxSize,
		CompletedCacheSize: cfg.Cluster.CompletedCacheSize,
		SendTimeout:        cfg.Cluster.SendTimeout,
		Logger:             log,
		Metrics:            ringMetrics,
	})
	if err != nil {
		return fmt.Errorf("create ring: %w", err)
	}

	metaProc := metadata.NewProcessor(ring, store, log,
		metadata.WithReservationTTL(2*cfg.Cluster.RequestTimeout))
	statsProc := statistics.NewProcessor(ring, statistics.NewTable(), marsh, log)
	ring.AddListener(metaProc)
	ring.AddListener(statsProc)

	assignment := exchange.NewAssignment(cfg.Cluster.Partitions, 0)
	stopTracking := trackTopology(ring, assignment, metaProc, log)

	ring.Start()
	sh.OnShutdown("ring", func(context.Context) error {
		stopTracking()
		ring.Stop()
		return nil
	})

	gatherer, err := metric.NewRegistry(buildinfo.Get(),
		wireMetrics,
		ringMetrics,
		httpMetrics,
		metric.RegisterFunc(store.RegisterMetrics),
	)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	srv, err := startAdmin(cfg, sh, log, handler.Config{
		Metadata:       metaProc,
		Types:          store,
		Statistics:     statsProc,
		Cluster:        ring,
		Partitions:     assignment,
		Registry:       reg,
		Version:        buildinfo.Version,
		RequestTimeout: cfg.Cluster.RequestTimeout,
		Logger:         log,
	}, gatherer, httpMetrics)
	if err != nil {
		return err
	}

	if *configFile != "" {
		if err := watchConfig(*configFile, level, sh, log); err != nil {
			log.Warn("config reload disabled", "error", err)
		}
	}

	log.Info("node started",
		"gossip_addr", transport.Addr(),
		"admin_addr", srv.Addr(),
		"members", len(ring.Order()))

	if err := sh.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("node stopped gracefully")
	return nil
}

// loadConfig layers defaults, the file and the environment.
func loadConfig(configFile string) (*config.NodeConfig, error) {
	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.LoadMap(config.DefaultMap()); err != nil {
		return nil, err
	}

	cfg := &config.NodeConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger builds the process logger around a shared level so a config
// reload can change it.
func initLogger(cfg *config.NodeConfig, level *slog.LevelVar) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:    cfg.Log.Level,
		Format:   cfg.Log.Format,
		Output:   os.Stdout,
		LevelVar: level,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// buildRegistry registers every wire type the node decodes and the CBOR
// payloads that travel without a wire layout.
func buildRegistry() (*wire.Registry, discovery.Marshaller, error) {
	payloads := discovery.NewPayloadRegistry()
	if err := statistics.RegisterPayloads(payloads); err != nil {
		return nil, nil, err
	}
	marsh, err := discovery.NewCBORMarshaller(payloads)
	if err != nil {
		return nil, nil, err
	}

	reg := wire.NewRegistry()
	if err := discovery.RegisterMessages(reg, marsh); err != nil {
		return nil, nil, err
	}
	for _, register := range []func(*wire.Registry) error{
		metadata.RegisterMessages,
		statistics.RegisterMessages,
		exchange.RegisterMessages,
		value.RegisterMessages,
	} {
		if err := register(reg); err != nil {
			return nil, nil, err
		}
	}
	return reg, marsh, nil
}

// trackTopology reassigns partitions and releases removal reservations of
// departed nodes after every membership change. The ring hook only
// signals: it fires from inside the gossip layer, which must not be
// re-entered.
func trackTopology(ring *discovery.Ring, a *exchange.Assignment, meta *metadata.Processor, log logger.Logger) (stop func()) {
	changed := make(chan struct{}, 1)
	done := make(chan struct{})
	ring.OnTopologyChange(func(int64) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	a.SetNodes(ring.Order())
	go func() {
		for {
			select {
			case <-done:
				return
			case <-changed:
				order := ring.Order()
				a.SetNodes(order)
				meta.ReleaseDeparted(order)
				log.Info("partitions reassigned",
					"topology_version", ring.TopologyVersion(),
					"nodes", len(order),
					"assignment_version", a.Version())
			}
		}
	}()
	return func() { close(done) }
}

// startAdmin serves the admin API, over HTTPS when a key pair is set.
func startAdmin(cfg *config.NodeConfig, sh *shutdown.Handler, log logger.Logger,
	hc handler.Config, gatherer prometheus.Gatherer, m *metric.HTTPMetrics) (*httpserver.Server, error) {
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Handler:   handler.New(hc),
		Token:     cfg.Admin.Token,
		RateLimit: cfg.Admin.RateLimit.RPS,
		Burst:     cfg.Admin.RateLimit.Burst,
		Gatherer:  gatherer,
		Metrics:   m,
		Logger:    log,
	})

	var certs *tlsroots.CertWatcher
	if cfg.Admin.TLS.Enabled() {
		w, err := tlsroots.NewCertWatcher(cfg.Admin.TLS.CertFile, cfg.Admin.TLS.KeyFile, log)
		if err != nil {
			return nil, fmt.Errorf("load admin certificate: %w", err)
		}
		w.StartAsync()
		sh.OnShutdown("cert watcher", func(context.Context) error {
			w.Stop()
			return nil
		})
		certs = w
	}

	var srv *httpserver.Server
	if certs != nil {
		srv = httpserver.New(cfg.Admin.Addr, router, certs.ServerConfig())
	} else {
		srv = httpserver.New(cfg.Admin.Addr, router, nil)
	}
	if err := srv.Listen(); err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Admin.Addr, err)
	}
	sh.OnShutdown("admin server", srv.Shutdown)

	go func() {
		log.Info("admin API listening", "addr", srv.Addr(), "tls", certs != nil)
		if err := srv.Serve(); err != nil {
			log.Error("admin server error", "error", err)
			sh.Trigger("admin server failed")
		}
	}()
	return srv, nil
}

// watchConfig applies log level changes from the config file without a
// restart. Other settings need one.
func watchConfig(path string, level *slog.LevelVar, sh *shutdown.Handler, log logger.Logger) error {
	w, err := confloader.NewWatcher(path, log)
	if err != nil {
		return err
	}
	w.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("ignoring config change", "error", err)
			return
		}
		next, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil || next == level.Level() {
			return
		}
		level.Set(next)
		log.Info("log level changed", "level", logger.LevelName(next))
	})
	w.StartAsync()
	sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}
