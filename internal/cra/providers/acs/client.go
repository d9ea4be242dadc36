// Package acs queries the Census American Community Survey 5-year tables.
// The API answers with a JSON array of rows where row 0 holds the column
// names and row 1 holds the values for the requested geography.
package acs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eligibility/internal/cra/models"
	"eligibility/internal/cra/providers"
)

const (
	DefaultBaseURL = "https://api.census.gov/data"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Query selects variables for one tract, or for one county when Tract is empty.
type Query struct {
	Source    providers.SourceID
	Variables []string
	State     string
	County    string
	Tract     string
}

// Querier is what the fetchers need from an ACS client.
type Querier interface {
	Query(ctx context.Context, q Query) (Table, error)
}

// Client is a thin ACS 5-year HTTP client.
type Client struct {
	baseURL string
	year    int
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithYear selects the survey vintage.
func WithYear(year int) Option {
	return func(c *Client) {
		if year > 0 {
			c.year = year
		}
	}
}

// WithAPIKey attaches a Census API key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client. An empty baseURL selects the public Census endpoint.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		year:    models.DefaultACSYear,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Year is the survey vintage requested.
func (c *Client) Year() int {
	return c.year
}

// Query runs q and returns the first data row keyed by the header row.
// Transport failures, non-2xx answers and malformed bodies come back as
// *providers.ProviderError tagged with q.Source.
func (c *Client) Query(ctx context.Context, q Query) (Table, error) {
	endpoint := c.endpoint(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Table{}, providers.NewProviderError(providers.ErrorInternal, q.Source, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Table{}, providers.ClassifyTransport(q.Source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.StatusCode == http.StatusNoContent {
		return Table{}, providers.ClassifyStatus(q.Source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Table{}, providers.ClassifyTransport(q.Source, err)
	}
	return parseTable(q.Source, body)
}

func (c *Client) endpoint(q Query) string {
	params := url.Values{}
	params.Set("get", strings.Join(q.Variables, ","))
	state := models.PadFIPS(q.State, models.StateFIPSLen)
	county := models.PadFIPS(q.County, models.CountyFIPSLen)
	if q.Tract != "" {
		params.Set("for", "tract:"+models.PadFIPS(q.Tract, models.TractCodeLen))
		params.Set("in", fmt.Sprintf("state:%s county:%s", state, county))
	} else {
		params.Set("for", "county:"+county)
		params.Set("in", "state:"+state)
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return fmt.Sprintf("%s/%d/acs/acs5?%s", c.baseURL, c.year, params.Encode())
}

// Table is one ACS result row addressed by column name.
type Table struct {
	Headers []string
	Values  []string
}

// Int returns the named column as an integer. ACS encodes numbers as strings,
// occasionally with a decimal part; missing columns and unparseable cells are errors.
func (t Table) Int(name string) (int, error) {
	for i, h := range t.Headers {
		if h != name {
			continue
		}
		if i >= len(t.Values) {
			return 0, fmt.Errorf("column %s has no value", name)
		}
		raw := strings.TrimSpace(t.Values[i])
		if n, err := strconv.Atoi(raw); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", name, err)
		}
		return int(f), nil
	}
	return 0, fmt.Errorf("column %s missing", name)
}

func parseTable(source providers.SourceID, body []byte) (Table, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return Table{}, providers.NewProviderError(providers.ErrorBadData, source, "decode rows", err)
	}
	if len(rows) < 2 {
		return Table{}, providers.NewProviderError(providers.ErrorNotFound, source, "no data rows returned", nil)
	}
	return Table{Headers: cells(rows[0]), Values: cells(rows[1])}, nil
}

func cells(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case string:
			out[i] = val
		case float64:
			out[i] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(val)
		}
	}
	return out
}
