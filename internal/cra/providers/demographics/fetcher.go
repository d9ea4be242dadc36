// Package demographics reads tract population by Hispanic origin and race.
package demographics

import (
	"context"
	"log/slog"

	"eligibility/internal/cra/domain/tiers"
	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/providers"
	"eligibility/internal/cra/providers/acs"
)

const (
	VarTotalPopulation = "B01003_001E"
	VarHispanic        = "B03003_003E"
	VarBlack           = "B02001_003E"
	VarAsian           = "B02001_005E"
	VarPacific         = "B02001_006E"
)

var variables = []string{VarTotalPopulation, VarHispanic, VarBlack, VarAsian, VarPacific}

// Fetcher resolves Demographics; failures yield models.UnavailableDemographics.
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

func (f *Fetcher) Fetch(ctx context.Context, geo models.GeoResolution) models.Demographics {
	d, err := providers.Run(ctx, f.inst, providers.SourceDemographics, func(ctx context.Context) (models.Demographics, error) {
		return f.fetch(ctx, geo)
	})
	if err != nil {
		providers.Degrade(ctx, f.inst, providers.SourceDemographics, err, "demographics unavailable",
			"tract_fips", geo.FullTractFIPS,
		)
		return models.UnavailableDemographics()
	}
	return d
}

func (f *Fetcher) fetch(ctx context.Context, geo models.GeoResolution) (models.Demographics, error) {
	table, err := f.client.Query(ctx, acs.Query{
		Source:    providers.SourceDemographics,
		Variables: variables,
		State:     geo.StateFIPS,
		County:    geo.CountyFIPS,
		Tract:     geo.TractCode,
	})
	if err != nil {
		return models.Demographics{}, err
	}

	counts := make(map[string]int, len(variables))
	for _, v := range variables {
		n, err := table.Int(v)
		if err != nil {
			return models.Demographics{}, providers.NewProviderError(providers.ErrorBadData, providers.SourceDemographics, "unexpected ACS row", err)
		}
		counts[v] = max(n, 0)
	}

	total := counts[VarTotalPopulation]
	share := func(n int) models.GroupShare {
		return models.GroupShare{Count: n, Pct: tiers.Pct(float64(n), float64(total))}
	}
	return models.Demographics{
		TotalPopulation: total,
		Hispanic:        share(counts[VarHispanic]),
		Black:           share(counts[VarBlack]),
		AsianPacific:    share(counts[VarAsian] + counts[VarPacific]),
	}, nil
}
