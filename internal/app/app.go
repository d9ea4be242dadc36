// Package app wires configuration into a running snapshot service. Both the
// server binary and the operator CLI build through here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eligibility/internal/cra/controller"
	"eligibility/internal/cra/handler"
	crametrics "eligibility/internal/cra/metrics"
	"eligibility/internal/cra/orchestrator"
	"eligibility/internal/cra/providers"
	"eligibility/internal/cra/providers/acs"
	"eligibility/internal/cra/providers/demographics"
	"eligibility/internal/cra/providers/geocoder"
	"eligibility/internal/cra/providers/income"
	"eligibility/internal/cra/providers/tract"
	"eligibility/internal/cra/publisher"
	"eligibility/internal/cra/records"
	"eligibility/internal/cra/store"
	"eligibility/internal/platform/config"
	"eligibility/internal/platform/httpserver"
	httpmetrics "eligibility/internal/platform/metrics"
	"eligibility/internal/platform/redis"
	"eligibility/pkg/platform/circuit"
	"eligibility/pkg/platform/httputil"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	eventPartitions = 3
)

// App holds the wired service and the resources it must release.
type App struct {
	Config       config.Config
	Logger       *slog.Logger
	Orchestrator *orchestrator.Orchestrator
	Controllers  *controller.Registry
	Records      records.Store
	Router       http.Handler

	memCache *store.InMemoryCache
	redis    *redis.Client
	db       *sql.DB
	events   *publisher.KafkaPublisher
	registry *prometheus.Registry
}

// Option configures New.
type Option func(*App)

// WithRegistry registers metrics on reg instead of the default registry and
// serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// New connects configured backends and builds the HTTP router. Redis,
// Postgres and Kafka are optional; absent settings select in-process stand-ins.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{Config: cfg, Logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	built := false
	defer func() {
		if !built {
			_ = a.Close(context.Background())
		}
	}()

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	if a.registry != nil {
		reg = a.registry
	}
	craMetrics := crametrics.NewWithRegisterer(reg)
	httpMetrics := httpmetrics.NewWithRegisterer(reg)

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	cache, err := a.buildCache(startCtx)
	if err != nil {
		return nil, err
	}
	a.Records, err = a.buildRecords(startCtx)
	if err != nil {
		return nil, err
	}
	events, err := a.buildPublisher(startCtx, craMetrics)
	if err != nil {
		return nil, err
	}

	src := cfg.Sources
	gate := func(id providers.SourceID) providers.Gate {
		return providers.Gate{Breaker: circuit.New(string(id),
			circuit.WithFailureThreshold(src.BreakerThreshold),
			circuit.WithCooldown(src.BreakerCooldown),
		)}
	}
	acsClient := acs.New(src.ACSURL,
		acs.WithYear(src.ACSYear),
		acs.WithAPIKey(src.ACSAPIKey),
		acs.WithTimeout(src.Timeout),
	)
	geo := geocoder.New(src.GeocoderURL,
		geocoder.WithTimeout(src.Timeout),
		geocoder.WithGate(gate(providers.SourceGeocoder)),
		geocoder.WithLogger(logger),
		geocoder.WithMetrics(craMetrics),
	)
	tractFetcher := tract.New(acsClient,
		tract.WithGate(gate(providers.SourceTract)),
		tract.WithLogger(logger),
		tract.WithMetrics(craMetrics),
	)
	incomeFetcher := income.New(acsClient,
		income.WithGate(gate(providers.SourceIncome)),
		income.WithLogger(logger),
		income.WithMetrics(craMetrics),
	)
	demographicsFetcher := demographics.New(acsClient,
		demographics.WithGate(gate(providers.SourceDemographics)),
		demographics.WithLogger(logger),
		demographics.WithMetrics(craMetrics),
	)

	a.Orchestrator, err = orchestrator.New(geo, tractFetcher, incomeFetcher, demographicsFetcher,
		orchestrator.WithCache(cache),
		orchestrator.WithPublisher(events),
		orchestrator.WithACSYear(src.ACSYear),
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(craMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	a.Controllers = controller.NewRegistry(a.Orchestrator,
		controller.WithSnapshotWriter(a.Records),
		controller.WithLogger(logger),
		controller.WithMetrics(craMetrics),
	)

	a.Router = a.buildRouter(httpMetrics)
	built = true
	return a, nil
}

func (a *App) buildCache(ctx context.Context) (store.Cache, error) {
	if a.Config.Cache.Backend != config.CacheRedis {
		a.memCache = store.NewInMemoryCache(a.Config.Cache.TTL)
		return a.memCache, nil
	}
	client, err := redis.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client
	a.Logger.Info("snapshot cache backed by redis")
	return store.NewRedisCache(client.Client, a.Config.Cache.TTL), nil
}

func (a *App) buildRecords(ctx context.Context) (records.Store, error) {
	if a.Config.Postgres.URL == "" {
		a.Logger.Warn("DATABASE_URL not set; snapshots are kept in memory only")
		return records.NewInMemoryStore(), nil
	}
	db, err := sql.Open("pgx", a.Config.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.db = db
	if a.Config.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(a.Config.Postgres.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := records.NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *App) buildPublisher(ctx context.Context, m *crametrics.Metrics) (orchestrator.Publisher, error) {
	if len(a.Config.Kafka.Brokers) == 0 {
		return publisher.NopPublisher{}, nil
	}
	p, err := publisher.NewKafka(a.Config.Kafka.Brokers, a.Config.Kafka.Topic,
		publisher.WithLogger(a.Logger),
		publisher.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	a.events = p
	if err := p.EnsureTopic(ctx, eventPartitions, 1); err != nil {
		a.Logger.Warn("could not ensure snapshot event topic", "topic", a.Config.Kafka.Topic, "error", err)
	}
	return p, nil
}

func (a *App) buildRouter(m *httpmetrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", a.handleHealth)
	if a.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", httpmetrics.Handler())
	}
	handler.New(a.Orchestrator, a.Controllers, a.Records, a.Logger, m).Register(r)
	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			status["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	httputil.WriteJSON(w, code, status)
}

// Serve runs the HTTP server and the in-memory cleanup loops until ctx ends,
// then drains background persistence and releases backends.
func (a *App) Serve(ctx context.Context) error {
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	var cleanup sync.WaitGroup
	a.startCleanup(cleanupCtx, &cleanup)

	srv := httpserver.New(a.Config.Server.Addr, a.Router)
	serveErr := httpserver.Run(ctx, srv, a.Logger)

	stopCleanup()
	cleanup.Wait()
	a.Controllers.Wait()
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, a.Close(closeCtx))
}

func (a *App) startCleanup(ctx context.Context, wg *sync.WaitGroup) {
	interval := a.Config.State.CleanupInterval
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.Controllers.StartCleanup(ctx, interval, a.Config.State.IdleTTL)
	}()
	if a.memCache != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.memCache.StartCleanup(ctx, interval)
		}()
	}
}

// Close releases backends. Safe to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
