// Package tract derives a tract's income level and minority share from ACS
// median family income and race totals.
package tract

import (
	"context"
	"fmt"
	"log/slog"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/providers"
	"eligibility/internal/cra/providers/acs"
)

// ACS variables read by the fetcher.
const (
	VarMedianFamilyIncome = "B19013_001E"
	VarTotalPopulation    = "B02001_001E"
	VarWhiteAlone         = "B02001_002E"
)

// Fetcher resolves TractMetrics. It never returns an error; failures yield
// models.UnavailableTractMetrics.
type Fetcher struct {
	client acs.Querier
	inst   providers.Instrumentation
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithGate(g providers.Gate) Option {
	return func(f *Fetcher) { f.inst.Gate = g }
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.inst.Logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.inst.Metrics = m }
}

func New(client acs.Querier, opts ...Option) *Fetcher {
	f := &Fetcher{client: client}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads tract and county median family income plus race totals.
func (f *Fetcher) Fetch(ctx context.Context, geo models.GeoResolution) models.TractMetrics {
	m, err := providers.Run(ctx, f.inst, providers.SourceTract, func(ctx context.Context) (models.TractMetrics, error) {
		return f.fetch(ctx, geo)
	})
	if err != nil {
		providers.Degrade(ctx, f.inst, providers.SourceTract, err, "tract metrics unavailable, using defaults",
			"tract_fips", geo.FullTractFIPS,
		)
		return models.UnavailableTractMetrics()
	}
	return m
}

func (f *Fetcher) fetch(ctx context.Context, geo models.GeoResolution) (models.TractMetrics, error) {
	tractRow, err := f.client.Query(ctx, acs.Query{
		Source:    providers.SourceTract,
		Variables: []string{VarMedianFamilyIncome, VarTotalPopulation, VarWhiteAlone},
		State:     geo.StateFIPS,
		County:    geo.CountyFIPS,
		Tract:     geo.TractCode,
	})
	if err != nil {
		return models.TractMetrics{}, err
	}
	tractMFI, err := tractRow.Int(VarMedianFamilyIncome)
	if err != nil {
		return models.TractMetrics{}, badData(err)
	}
	if tractMFI < 0 {
		// ACS encodes suppressed estimates as large negative sentinels.
		return models.TractMetrics{}, badData(fmt.Errorf("tract median family income suppressed (%d)", tractMFI))
	}
	total, err := tractRow.Int(VarTotalPopulation)
	if err != nil {
		return models.TractMetrics{}, badData(err)
	}
	white, err := tractRow.Int(VarWhiteAlone)
	if err != nil {
		return models.TractMetrics{}, badData(err)
	}

	countyRow, err := f.client.Query(ctx, acs.Query{
		Source:    providers.SourceTract,
		Variables: []string{VarMedianFamilyIncome},
		State:     geo.StateFIPS,
		County:    geo.CountyFIPS,
	})
	if err != nil {
		return models.TractMetrics{}, err
	}
	countyMFI, err := countyRow.Int(VarMedianFamilyIncome)
	if err != nil {
		return models.TractMetrics{}, badData(err)
	}
	if countyMFI < 0 {
		countyMFI = 0
	}

	ratio := tiers.TractRatio(float64(tractMFI), float64(countyMFI))
	return models.NewTractMetrics(
		tiers.ClassifyTract(ratio),
		tiers.MinorityPct(float64(total), float64(white)),
		ratio,
		float64(countyMFI),
	), nil
}

func badData(err error) error {
	return providers.NewProviderError(providers.ErrorBadData, providers.SourceTract, "unexpected ACS row", err)
}
