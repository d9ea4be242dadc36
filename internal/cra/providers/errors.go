package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the source took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the source returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage indicates the source is unavailable or answered non-2xx
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the requested geography doesn't exist upstream
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorCircuitOpen indicates the call was skipped because the source's breaker is open
	ErrorCircuitOpen ErrorCategory = "circuit_open"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps source failures with normalized categorization
type ProviderError struct {
	Category   ErrorCategory
	Source     SourceID
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error
func NewProviderError(category ErrorCategory, source SourceID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		Source:     source,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// IsOutage reports whether err says the source itself is unhealthy, as opposed
// to having no data for this particular geography.
func IsOutage(err error) bool {
	switch GetCategory(err) {
	case ErrorTimeout, ErrorProviderOutage:
		return true
	default:
		return false
	}
}

// ClassifyTransport maps an http.Client error to a ProviderError.
func ClassifyTransport(source SourceID, err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(ErrorTimeout, source, "request timed out", err)
	}
	return NewProviderError(ErrorProviderOutage, source, "request failed", err)
}

// ClassifyStatus maps a non-2xx HTTP status to a ProviderError.
func ClassifyStatus(source SourceID, status int) *ProviderError {
	msg := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusNotFound || status == http.StatusNoContent:
		return NewProviderError(ErrorNotFound, source, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewProviderError(ErrorTimeout, source, msg, nil)
	case status >= http.StatusInternalServerError:
		return NewProviderError(ErrorProviderOutage, source, msg, nil)
	default:
		return NewProviderError(ErrorBadData, source, msg, nil)
	}
}
