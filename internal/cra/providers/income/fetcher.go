// Package income resolves area median income ceilings for a county.
package income

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

// VarMedianIncome is the ACS county median income estimate.
const VarMedianIncome = "B19013_001E"

// Fetcher resolves IncomeData. Primary source failure falls back to the
// county median supplied by the caller; both failing yields zeroed data
// with Failed set. It never returns an error.
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

// Fetch returns AMI tiers for geo's county. fallbackMedian is the county
// median family income already read by the tract fetcher, or 0.
func (f *Fetcher) Fetch(ctx context.Context, geo models.GeoResolution, fallbackMedian float64) models.IncomeData {
	ami, err := providers.Run(ctx, f.inst, providers.SourceIncome, func(ctx context.Context) (float64, error) {
		return f.fetch(ctx, geo)
	})
	if err == nil {
		return tiers.BuildAMI(ami)
	}

	if fallbackMedian > 0 {
		providers.Degrade(ctx, f.inst, providers.SourceIncome, err, "area median income unavailable, using county median fallback",
			"county_fips", geo.StateFIPS+geo.CountyFIPS,
			"fallback_median", fallbackMedian,
		)
		d := tiers.BuildAMI(fallbackMedian)
		d.Fallback = true
		return d
	}

	providers.Degrade(ctx, f.inst, providers.SourceIncome, err, "area median income unavailable, no fallback",
		"county_fips", geo.StateFIPS+geo.CountyFIPS,
	)
	return models.IncomeData{Failed: true}
}

func (f *Fetcher) fetch(ctx context.Context, geo models.GeoResolution) (float64, error) {
	table, err := f.client.Query(ctx, acs.Query{
		Source:    providers.SourceIncome,
		Variables: []string{VarMedianIncome},
		State:     geo.StateFIPS,
		County:    geo.CountyFIPS,
	})
	if err != nil {
		return 0, err
	}
	ami, err := table.Int(VarMedianIncome)
	if err != nil {
		return 0, providers.NewProviderError(providers.ErrorBadData, providers.SourceIncome, "unexpected ACS row", err)
	}
	if ami <= 0 {
		return 0, providers.NewProviderError(providers.ErrorBadData, providers.SourceIncome, fmt.Sprintf("non-positive median income %d", ami), nil)
	}
	return float64(ami), nil
}
