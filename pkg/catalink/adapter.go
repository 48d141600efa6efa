package catalink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/catalink/internal/adapters/catalog"
	"github.com/ghalamif/catalink/internal/adapters/observability"
	"github.com/ghalamif/catalink/internal/adapters/transport"
	"github.com/ghalamif/catalink/internal/adapters/viewer"
	"github.com/ghalamif/catalink/internal/adapters/writer"
	"github.com/ghalamif/catalink/internal/app/pipeline"
	"github.com/ghalamif/catalink/internal/logging"
	"github.com/ghalamif/catalink/internal/ports"
)

// AdapterOption customizes the collaborators used by Adapter.
type AdapterOption func(*adapterOverrides)

type adapterOverrides struct {
	transport     Transport
	writer        Writer
	engine        Engine
	catalog       Catalog
	observability Observability
}

// WithTransport injects the transport that resolves channel names.
func WithTransport(t Transport) AdapterOption {
	return func(o *adapterOverrides) {
		o.transport = t
	}
}

// WithWriter replaces the file writer used for extracts.
func WithWriter(w Writer) AdapterOption {
	return func(o *adapterOverrides) {
		o.writer = w
	}
}

// WithEngine plugs in a visualization engine instead of the built-in scene.
func WithEngine(e Engine) AdapterOption {
	return func(o *adapterOverrides) {
		o.engine = e
	}
}

// WithCatalog records extracts somewhere other than the configured database.
func WithCatalog(c Catalog) AdapterOption {
	return func(o *adapterOverrides) {
		o.catalog = c
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) AdapterOption {
	return func(o *adapterOverrides) {
		o.observability = obs
	}
}

// Adapter is the host-facing co-processing entry point. A simulation calls
// Initialize once, Execute once per cycle and Finalize at the end.
type Adapter struct {
	cfg        *Config
	coord      *pipeline.Coordinator
	transport  ports.Transport
	scene      *viewer.Scene
	catalog    ports.Catalog
	obs        ports.Observability
	registry   *prometheus.Registry
	db         *sql.DB
	metricsSrv *http.Server
	metricsLn  net.Listener
	mu         sync.Mutex
}

// NewAdapter bootstraps the default collaborators (in-memory transport,
// file writer, scene engine, Prometheus observability and, when a
// connection string is configured, a Postgres catalog). Options override
// any of them.
func NewAdapter(cfg *Config, opts ...AdapterOption) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrConfiguration)
	}

	var overrides adapterOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	a := &Adapter{cfg: cfg}

	a.obs = overrides.observability
	if a.obs == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		logger := logging.New("catalink", logging.RankFromEnv(cfg.Log.Rank))
		a.obs = observability.NewPromObs(logger, a.registry)
	}

	a.transport = overrides.transport
	if a.transport == nil {
		a.transport = transport.NewMemTransport(cfg.Transport.ReplaceProxies)
	}

	w := overrides.writer
	if w == nil {
		w = writer.NewFileWriter(false)
	}

	engine := overrides.engine
	if engine == nil {
		a.scene = viewer.NewScene()
		engine = a.scene
	} else if s, ok := engine.(*viewer.Scene); ok {
		a.scene = s
	}

	a.catalog = overrides.catalog
	if a.catalog == nil && cfg.Catalog.ConnString != "" {
		db, err := sql.Open("postgres", cfg.Catalog.ConnString)
		if err != nil {
			return nil, err
		}
		cat, err := catalog.NewPostgresCatalog(db, cfg.Catalog.Table)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		a.db = db
		a.catalog = cat
	}

	source, err := pipeline.NewProducerSource(cfg.ProducerSource)
	if err != nil {
		a.closeDB()
		return nil, err
	}

	a.coord, err = pipeline.NewCoordinator(cfg.RunOptions(), cfg.Channels, pipeline.Collaborators{
		Transport: a.transport,
		Writer:    w,
		Engine:    engine,
		Catalog:   a.catalog,
		Source:    source,
		Obs:       a.obs,
	})
	if err != nil {
		a.closeDB()
		return nil, err
	}
	return a, nil
}

// Initialize prepares the catalog table and starts the metrics server.
func (a *Adapter) Initialize() error {
	if a == nil {
		return fmt.Errorf("adapter is nil")
	}
	// Bind before initializing so a taken metrics port fails the run up front.
	var ln net.Listener
	if a.cfg.Metrics.Addr != "" {
		l, err := net.Listen("tcp", a.cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("metrics listen %s: %w", a.cfg.Metrics.Addr, err)
		}
		ln = l
	}
	if err := a.coord.Initialize(); err != nil {
		if ln != nil {
			_ = ln.Close()
		}
		return err
	}

	if s, ok := a.catalog.(interface {
		EnsureSchema(context.Context) error
	}); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.EnsureSchema(ctx); err != nil {
			a.obs.LogWarn("catalog_schema_failed", ports.Field{Key: "err", Value: err.Error()})
		}
	}

	if ln != nil {
		a.serveMetrics(ln)
	}
	return nil
}

// Execute processes one simulation cycle.
func (a *Adapter) Execute(ctx context.Context, info ExecInfo) error {
	return a.coord.Execute(ctx, info)
}

// Finalize ends the run and stops the metrics server and DB connection.
func (a *Adapter) Finalize(ctx context.Context) error {
	var errs []error

	if err := a.coord.Finalize(); err != nil {
		errs = append(errs, err)
	}

	a.mu.Lock()
	srv := a.metricsSrv
	a.metricsSrv = nil
	a.metricsLn = nil
	a.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}

	return errors.Join(errs...)
}

// Coordinator exposes the underlying cycle coordinator.
func (a *Adapter) Coordinator() *pipeline.Coordinator { return a.coord }

// Transport returns the transport channels are resolved against.
func (a *Adapter) Transport() Transport { return a.transport }

// Scene returns the built-in engine, or nil when a custom engine was injected.
func (a *Adapter) Scene() *viewer.Scene { return a.scene }

// Handler serves /metrics, /healthz and /live.
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()
	if a.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		if a.scene == nil {
			http.Error(w, "live view unavailable", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.scene.Snapshot())
	})
	return mux
}

// MetricsAddr is the address the metrics server listens on, or "" when it
// is not running.
func (a *Adapter) MetricsAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.metricsLn == nil {
		return ""
	}
	return a.metricsLn.Addr().String()
}

func (a *Adapter) serveMetrics(ln net.Listener) {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.mu.Lock()
	a.metricsSrv = srv
	a.metricsLn = ln
	a.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.obs.LogError("metrics_server_exited", err, ports.Field{Key: "addr", Value: ln.Addr().String()})
		}
	}()
}

func (a *Adapter) closeDB() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
