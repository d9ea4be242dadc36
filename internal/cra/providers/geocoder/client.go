// Package geocoder resolves a mailing address to its 2020 census tract using
// the Census Bureau geographies/address endpoint.
package geocoder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eligibility/internal/cra/metrics"
	"eligibility/internal/cra/models"
	"eligibility/internal/cra/providers"
)

const (
	DefaultBaseURL = "https://geocoding.geo.census.gov"
	addressPath    = "/geocoder/geographies/address"
	tractLayer     = "Census Tracts"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client calls the Census geocoder.
type Client struct {
	baseURL string
	http    *http.Client
	inst    providers.Instrumentation
}

// Option configures a Client.
type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithGate(g providers.Gate) Option {
	return func(c *Client) {
		c.inst.Gate = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.inst.Logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.inst.Metrics = m
	}
}

// New creates a client. An empty baseURL selects the public Census host.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResponse struct {
	Result struct {
		AddressMatches []addressMatch `json:"addressMatches"`
	} `json:"result"`
}

type addressMatch struct {
	MatchedAddress string `json:"matchedAddress"`
	Coordinates    struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"coordinates"`
	Geographies map[string][]tractGeography `json:"geographies"`
}

type tractGeography struct {
	State    string `json:"STATE"`
	County   string `json:"COUNTY"`
	Tract    string `json:"TRACT"`
	BaseName string `json:"BASENAME"`
}

// Geocode resolves addr to a tract. It returns models.ErrAddressIncomplete when
// street or ZIP is missing, models.ErrAddressNotFound when nothing matched,
// models.ErrTractNotFound when the match carries no tract geography, and a
// *providers.ProviderError for transport or payload problems.
func (c *Client) Geocode(ctx context.Context, addr models.AddressInput) (*models.GeoResolution, error) {
	addr = addr.Trimmed()
	if !addr.Locatable() {
		return nil, models.ErrAddressIncomplete
	}

	geo, err := providers.Run(ctx, c.inst, providers.SourceGeocoder, func(ctx context.Context) (*models.GeoResolution, error) {
		return c.geocode(ctx, addr)
	})
	if err != nil {
		c.inst.Log().WarnContext(ctx, "geocode failed",
			"zip", addr.Zip,
			"error", err,
		)
		return nil, err
	}
	c.inst.Log().DebugContext(ctx, "address geocoded", "tract_fips", geo.FullTractFIPS)
	return geo, nil
}

func (c *Client) geocode(ctx context.Context, addr models.AddressInput) (*models.GeoResolution, error) {
	params := url.Values{}
	params.Set("street", addr.Street)
	params.Set("city", addr.City)
	params.Set("state", addr.State)
	params.Set("zip", addr.Zip)
	params.Set("benchmark", "Public_AR_Census2020")
	params.Set("vintage", "Census2020_Census2020")
	params.Set("layers", tractLayer)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+addressPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, providers.SourceGeocoder, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, providers.ClassifyTransport(providers.SourceGeocoder, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, providers.ClassifyStatus(providers.SourceGeocoder, resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providers.SourceGeocoder, "decode response", err)
	}
	return toResolution(body)
}

func toResolution(body geocodeResponse) (*models.GeoResolution, error) {
	if len(body.Result.AddressMatches) == 0 {
		return nil, models.ErrAddressNotFound
	}
	match := body.Result.AddressMatches[0]
	tracts := match.Geographies[tractLayer]
	if len(tracts) == 0 {
		return nil, models.ErrTractNotFound
	}
	t := tracts[0]
	if strings.TrimSpace(t.State) == "" || strings.TrimSpace(t.County) == "" || strings.TrimSpace(t.Tract) == "" {
		return nil, models.ErrTractNotFound
	}

	state := models.PadFIPS(t.State, models.StateFIPSLen)
	county := models.PadFIPS(t.County, models.CountyFIPSLen)
	tract := models.PadFIPS(t.Tract, models.TractCodeLen)
	full := state + county + tract
	if !models.IsTractFIPS(full) {
		return nil, providers.NewProviderError(providers.ErrorBadData, providers.SourceGeocoder, "malformed tract identifier "+full, nil)
	}

	return &models.GeoResolution{
		AddressNormalized: match.MatchedAddress,
		StateFIPS:         state,
		CountyFIPS:        county,
		TractCode:         tract,
		FullTractFIPS:     full,
		CountyName:        t.BaseName,
		Latitude:          match.Coordinates.Y,
		Longitude:         match.Coordinates.X,
	}, nil
}
