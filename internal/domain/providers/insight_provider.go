package providers

import (
	"context"
	"errors"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

// Typed provider failure reasons. Adapters wrap their transport errors in
// one of these so the engine can classify failures without knowing any
// provider's wire format.
var (
	// ErrProviderTimeout indicates the provider exceeded its latency budget.
	ErrProviderTimeout = errors.New("insight provider timed out")

	// ErrProviderRateLimited indicates the provider rejected the call for
	// quota reasons.
	ErrProviderRateLimited = errors.New("insight provider rate limited")

	// ErrProviderCapacity indicates the provider is overloaded or its
	// circuit breaker is open.
	ErrProviderCapacity = errors.New("insight provider at capacity")
)

// FailureReason is the coarse classification recorded in telemetry.
type FailureReason string

const (
	FailureTimeout   FailureReason = "timeout"
	FailureRateLimit FailureReason = "rateLimit"
	FailureCapacity  FailureReason = "capacity"
	FailureGeneric   FailureReason = "error"
)

// ClassifyFailure maps a provider error to its telemetry reason.
func ClassifyFailure(err error) FailureReason {
	switch {
	case errors.Is(err, ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrProviderRateLimited):
		return FailureRateLimit
	case errors.Is(err, ErrProviderCapacity):
		return FailureCapacity
	default:
		return FailureGeneric
	}
}

// InsightProvider is an opaque AI backend capable of producing insight text
// for a category/metrics pair. Persona is nil for shared (cacheable)
// requests.
type InsightProvider interface {
	// Name identifies the provider in telemetry and insight sources.
	Name() string

	// Generate produces insight text or fails with one of the typed
	// reasons above (wrapped), or a generic error.
	Generate(ctx context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (string, error)
}
