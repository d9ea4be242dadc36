// Package providers holds what the upstream statistical source clients share:
// source identifiers, the failure taxonomy, and breaker gating.
package providers

import (
	"eligibility/pkg/platform/circuit"
)

// SourceID identifies an upstream dataset in logs, metrics and errors.
type SourceID string

const (
	SourceGeocoder     SourceID = "geocoder"
	SourceTract        SourceID = "tract"
	SourceIncome       SourceID = "income"
	SourceDemographics SourceID = "demographics"
)

// Gate wraps an optional breaker. The zero value always allows calls.
type Gate struct {
	Breaker *circuit.Breaker
}

// Allow reports whether a call to source may proceed; when it may not, the
// returned error is a circuit_open ProviderError.
func (g Gate) Allow(source SourceID) error {
	if g.Breaker == nil || g.Breaker.Allow() {
		return nil
	}
	return NewProviderError(ErrorCircuitOpen, source, "circuit open, skipping call", nil)
}

// Record feeds the outcome of a call into the breaker and returns the resulting
// transition. Only outages count as failures; missing data for one geography
// says nothing about the source's health.
func (g Gate) Record(err error) circuit.StateChange {
	if g.Breaker == nil {
		return circuit.StateChange{}
	}
	switch {
	case err == nil:
		_, change := g.Breaker.RecordSuccess()
		return change
	case IsOutage(err):
		_, change := g.Breaker.RecordFailure()
		return change
	default:
		return circuit.StateChange{}
	}
}
