package ai

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

// MockAdapter produces deterministic insight text without any network call.
// Used in development and as a last-resort fallback when no real provider
// is configured.
type MockAdapter struct{}

// NewMockAdapter creates a new mock insight provider.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Name identifies the provider in telemetry.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Generate produces a canned message mentioning the first metric.
func (a *MockAdapter) Generate(_ context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (string, error) {
	greeting := "Your"
	if persona != nil && persona.Name != "" {
		greeting = persona.Name + ", your"
	}

	names := sortedMetricNames(metrics)
	if len(names) == 0 {
		return fmt.Sprintf("%s %s data looks steady today. Keep it up!", greeting, category), nil
	}

	first := names[0]
	return fmt.Sprintf(
		"%s %s reading of %s for %s is on track. Keep up the consistent routine!",
		greeting, first, strconv.FormatFloat(metrics[first], 'f', -1, 64), category,
	), nil
}

var _ providers.InsightProvider = (*MockAdapter)(nil)
