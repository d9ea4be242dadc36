// Package orchestrator assembles a Snapshot for an address: geocode, then the
// tract and demographics fetches in parallel, then area median income, then
// flags. Only address and geocode failures abort; every other source degrades
// the snapshot's DataQuality instead.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"eligibility/internal/cra/domain/flags"
	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/store"
	"eligibility/pkg/platform/sentinel"
	"eligibility/pkg/requestcontext"
)

var tracer = otel.Tracer("eligibility/cra/orchestrator")

// Geocoder resolves an address to its census tract.
type Geocoder interface {
	Geocode(ctx context.Context, addr models.AddressInput) (*models.GeoResolution, error)
}

// TractFetcher never fails; unavailable data comes back with Failed set.
type TractFetcher interface {
	Fetch(ctx context.Context, geo models.GeoResolution) models.TractMetrics
}

// IncomeFetcher never fails; fallbackMedian is used when its primary source is down.
type IncomeFetcher interface {
	Fetch(ctx context.Context, geo models.GeoResolution, fallbackMedian float64) models.IncomeData
}

// DemographicsFetcher never fails; unavailable data comes back with Failed set.
type DemographicsFetcher interface {
	Fetch(ctx context.Context, geo models.GeoResolution) models.Demographics
}

// Publisher announces freshly resolved snapshots to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, key string, snapshot *models.Snapshot) error
}

// Orchestrator resolves snapshots.
type Orchestrator struct {
	geocoder     Geocoder
	tract        TractFetcher
	income       IncomeFetcher
	demographics DemographicsFetcher
	cache        store.Cache
	publisher    Publisher
	acsYear      int
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache replaces the default one-hour in-memory cache.
func WithCache(c store.Cache) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.cache = c
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// WithACSYear stamps the survey vintage the fetchers were configured with.
func WithACSYear(year int) Option {
	return func(o *Orchestrator) {
		if year > 0 {
			o.acsYear = year
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New wires an Orchestrator. All four sources are required.
func New(geocoder Geocoder, tract TractFetcher, income IncomeFetcher, demographics DemographicsFetcher, opts ...Option) (*Orchestrator, error) {
	if geocoder == nil {
		return nil, errors.New("geocoder is required")
	}
	if tract == nil {
		return nil, errors.New("tract fetcher is required")
	}
	if income == nil {
		return nil, errors.New("income fetcher is required")
	}
	if demographics == nil {
		return nil, errors.New("demographics fetcher is required")
	}
	o := &Orchestrator{
		geocoder:     geocoder,
		tract:        tract,
		income:       income,
		demographics: demographics,
		cache:        store.NewInMemoryCache(store.DefaultTTL),
		acsYear:      models.DefaultACSYear,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Resolve returns the snapshot for addr with flags derived for monthlyIncome.
// It fails only with models.ErrAddressIncomplete or a geocoder error.
func (o *Orchestrator) Resolve(ctx context.Context, addr models.AddressInput, monthlyIncome float64) (*models.Snapshot, error) {
	start := time.Now()
	defer func() { o.metrics.ObserveResolve(time.Since(start)) }()

	addr = addr.Trimmed()
	if !addr.Complete() {
		return nil, models.ErrAddressIncomplete
	}
	// Source calls outlive the caller: the result lands in the shared cache.
	ctx = context.WithoutCancel(ctx)

	ctx, span := tracer.Start(ctx, "orchestrator.Resolve")
	defer span.End()

	key := addr.CacheKey()
	now := requestcontext.Now(ctx)

	if snap, ok := o.cached(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cra.cache_hit", true))
		return snap.WithFlags(flags.Derive(flags.InputFromSnapshot(snap, monthlyIncome), now)), nil
	}
	span.SetAttributes(attribute.Bool("cra.cache_hit", false))

	geo, err := o.geocoder.Geocode(ctx, addr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("geocode address: %w", err)
	}
	span.SetAttributes(attribute.String("cra.tract_fips", geo.FullTractFIPS))

	var (
		tractMetrics models.TractMetrics
		demographics models.Demographics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tractMetrics = o.tract.Fetch(gctx, *geo)
		return nil
	})
	g.Go(func() error {
		demographics = o.demographics.Fetch(gctx, *geo)
		return nil
	})
	_ = g.Wait() // fetchers are fail-soft and never return errors

	income := o.income.Fetch(ctx, *geo, tractMetrics.CountyMFI)
	income = tiers.BuildMFI(income, tractMetrics.CountyMFI, tractMetrics.TractMFIPct)

	quality := models.NewDataQuality(
		!tractMetrics.Failed,
		!income.Failed && !income.Fallback,
		!demographics.Failed,
	)

	snap := &models.Snapshot{
		EffectiveYear: models.EffectiveYear,
		ACSYear:       o.acsYear,
		ResolvedAt:    now.UTC(),
		Geography:     *geo,
		TractMetrics:  tractMetrics,
		IncomeData:    income,
		Demographics:  demographics,
		Source:        Citations(o.acsYear),
		DataQuality:   quality,
	}
	snap.Flags = flags.Derive(flags.InputFromSnapshot(snap, monthlyIncome), now)

	if err := o.cache.SaveSnapshot(ctx, key, snap); err != nil {
		o.logger.WarnContext(ctx, "snapshot cache write failed",
			"tract_fips", geo.FullTractFIPS,
			"error", err,
		)
	}
	o.publish(ctx, key, snap)

	o.logger.InfoContext(ctx, "snapshot resolved",
		"tract_fips", geo.FullTractFIPS,
		"income_level", tractMetrics.IncomeLevel,
		"full_data", quality.FullDataAvailable,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

func (o *Orchestrator) cached(ctx context.Context, key string) (*models.Snapshot, bool) {
	entry, err := o.cache.FindSnapshot(ctx, key)
	switch {
	case err == nil && entry != nil && entry.Snapshot != nil:
		o.metrics.IncCacheLookup("hit")
		return entry.Snapshot, true
	case err == nil, errors.Is(err, sentinel.ErrNotFound):
		o.metrics.IncCacheLookup("miss")
	default:
		o.metrics.IncCacheLookup("error")
		o.logger.WarnContext(ctx, "snapshot cache read failed, resolving from sources", "error", err)
	}
	return nil, false
}

func (o *Orchestrator) publish(ctx context.Context, key string, snap *models.Snapshot) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishSnapshot(ctx, key, snap); err != nil {
		o.metrics.IncPublishFailure()
		o.logger.WarnContext(ctx, "snapshot event publish failed",
			"tract_fips", snap.Geography.FullTractFIPS,
			"error", err,
		)
	}
}

// Citations names the dataset vintage behind each part of a snapshot.
func Citations(acsYear int) models.Source {
	return models.Source{
		Tract:    fmt.Sprintf("FFIEC CRA Data %d", models.TractDataYear),
		Income:   fmt.Sprintf("HUD Income Limits FY%d", models.EffectiveYear),
		ACS:      fmt.Sprintf("U.S. Census ACS 5-Year %d", acsYear),
		Geocoder: "U.S. Census Geocoder 2020",
	}
}
