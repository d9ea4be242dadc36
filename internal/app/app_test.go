package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligibility/internal/cra/controller"
	"eligibility/internal/cra/models"
	"eligibility/internal/platform/config"
	"eligibility/pkg/testutil"
)

func testConfig(upstreamURL string) config.Config {
	return config.Config{
		Server: config.Server{Addr: "127.0.0.1:0"},
		Sources: config.Sources{
			GeocoderURL:      upstreamURL,
			ACSURL:           upstreamURL,
			ACSYear:          models.DefaultACSYear,
			Timeout:          5 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Second,
		},
		Cache: config.Cache{Backend: config.CacheMemory, TTL: time.Hour},
		Kafka: config.KafkaConfig{Topic: "cra.snapshots"},
	}
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *App {
	t.Helper()
	upstream := testutil.NewCensusServer(t)
	upstream.DemographicsDown.Store(true)

	cfg := testConfig(upstream.URL)
	for _, m := range mutate {
		m(&cfg)
	}
	a, err := New(context.Background(), cfg, nil, WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Controllers.Wait()
		_ = a.Close(context.Background())
	})
	return a
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScenarioRunThroughWiredStack(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	body := `{"address":{"streetAddress":"123 Main St","city":"Covington","state":"GA","zipCode":"30014"},"monthlyIncome":3600}`
	resp, err := http.Post(srv.URL+"/scenarios/scn-1/cra", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state controller.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, controller.StatusPartial, state.Status)
	assert.Equal(t, "Some data unavailable: ACS Demographics. Showing available data.", state.Error)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, testutil.CovingtonTractFIPS, state.Snapshot.Geography.FullTractFIPS)
	assert.Equal(t, models.IncomeLevelModerate, state.Snapshot.TractMetrics.IncomeLevel)
	assert.True(t, state.Snapshot.Flags.IsLowModTract)

	a.Controllers.Wait()
	stored, err := a.Records.FindSnapshot(context.Background(), "scn-1")
	require.NoError(t, err)
	assert.Equal(t, state.Snapshot.Geography, stored.Geography)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	text, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `cra_resolutions_total{status="partial"} 1`)
	assert.Contains(t, string(text), "cra_http_request_duration_seconds")
}

func TestNewFailsOnUnreachableDatabase(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Postgres.URL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	_, err := New(context.Background(), cfg, nil, WithRegistry(prometheus.NewRegistry()))
	assert.ErrorContains(t, err, "postgres")
}

func TestServeEvictsIdleScenarioState(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.State = config.State{IdleTTL: time.Millisecond, CleanupInterval: 5 * time.Millisecond}
	})

	body := `{"address":{"streetAddress":"123 Main St","city":"Covington","state":"GA","zipCode":"30014"},"monthlyIncome":3600}`
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scenarios/scn-1/cra", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, a.Controllers.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	assert.Eventually(t, func() bool { return a.Controllers.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	stored, err := a.Records.FindSnapshot(context.Background(), "scn-1")
	require.NoError(t, err)
	assert.Equal(t, testutil.CovingtonTractFIPS, stored.Geography.FullTractFIPS)
}
