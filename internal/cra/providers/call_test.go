package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eligibility/pkg/platform/circuit"
)

func TestRun_GateSkipsCallWhenOpen(t *testing.T) {
	breaker := circuit.New("tract", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	in := Instrumentation{Gate: Gate{Breaker: breaker}}
	outage := NewProviderError(ErrorProviderOutage, SourceTract, "down", nil)

	calls := 0
	call := func(context.Context) (int, error) {
		calls++
		return 0, outage
	}

	_, err := Run(context.Background(), in, SourceTract, call)
	require.ErrorIs(t, err, outage)
	require.True(t, breaker.IsOpen())

	_, err = Run(context.Background(), in, SourceTract, call)
	assert.Equal(t, ErrorCircuitOpen, GetCategory(err))
	assert.Equal(t, 1, calls)
}

func TestGate_RecordOnlyCountsOutages(t *testing.T) {
	breaker := circuit.New("demographics", circuit.WithFailureThreshold(1))
	g := Gate{Breaker: breaker}

	g.Record(NewProviderError(ErrorBadData, SourceDemographics, "odd row", nil))
	g.Record(NewProviderError(ErrorNotFound, SourceDemographics, "no tract", nil))
	assert.False(t, breaker.IsOpen())

	change := g.Record(NewProviderError(ErrorTimeout, SourceDemographics, "slow", nil))
	assert.True(t, change.Opened)
}

func TestGate_ZeroValueAllows(t *testing.T) {
	var g Gate
	assert.NoError(t, g.Allow(SourceIncome))
	assert.Equal(t, circuit.StateChange{}, g.Record(errors.New("x")))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrorNotFound, ClassifyStatus(SourceTract, http.StatusNotFound).Category)
	assert.Equal(t, ErrorTimeout, ClassifyStatus(SourceTract, http.StatusGatewayTimeout).Category)
	assert.Equal(t, ErrorProviderOutage, ClassifyStatus(SourceTract, http.StatusServiceUnavailable).Category)
	assert.Equal(t, ErrorBadData, ClassifyStatus(SourceTract, http.StatusBadRequest).Category)
}

func TestClassifyTransport(t *testing.T) {
	assert.Equal(t, ErrorTimeout, ClassifyTransport(SourceTract, context.DeadlineExceeded).Category)
	assert.Equal(t, ErrorProviderOutage, ClassifyTransport(SourceTract, errors.New("connection refused")).Category)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("eof")
	err := NewProviderError(ErrorBadData, SourceIncome, "decode", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "source income [bad_data]: decode: eof", err.Error())
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
}
