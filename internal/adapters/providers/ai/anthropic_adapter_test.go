package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/pkg/config"
)

func newAnthropicTestAdapter(t *testing.T, handler http.HandlerFunc) *AnthropicAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewAnthropicAdapter(&config.ProviderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	adapter.baseURL = server.URL
	return adapter
}

func TestAnthropicAdapterParsesTextContent(t *testing.T) {
	adapter := newAnthropicTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": [{"type": "text", "text": "Great hydration today."}]}`))
	})

	text, err := adapter.Generate(context.Background(), entities.InsightCategoryNutrition, map[string]float64{"water_ml": 2000}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Great hydration today.", text)
}

func TestAnthropicAdapterStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: providers.ErrProviderRateLimited},
		{name: "overloaded", status: statusOverloaded, wantErr: providers.ErrProviderCapacity},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: providers.ErrProviderCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newAnthropicTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := adapter.Generate(context.Background(), entities.InsightCategorySleep, nil, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAnthropicAdapterEmptyContent(t *testing.T) {
	adapter := newAnthropicTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": []}`))
	})

	_, err := adapter.Generate(context.Background(), entities.InsightCategorySleep, nil, nil)
	require.Error(t, err)
}

func TestBuildInsightUserPromptSortsMetrics(t *testing.T) {
	prompt := buildInsightUserPrompt(entities.InsightCategoryVitals, map[string]float64{
		"spo2":       98,
		"heart_rate": 61,
	}, nil)

	heartIdx := strings.Index(prompt, "heart_rate")
	spo2Idx := strings.Index(prompt, "spo2")
	require.GreaterOrEqual(t, heartIdx, 0)
	require.GreaterOrEqual(t, spo2Idx, 0)
	assert.Less(t, heartIdx, spo2Idx, "metric names must appear in sorted order")
}

func TestBuildInsightUserPromptIncludesPersona(t *testing.T) {
	prompt := buildInsightUserPrompt(entities.InsightCategoryPhysical, map[string]float64{"steps": 9000},
		&entities.PersonaContext{Name: "Jo", Tone: "direct", Traits: []string{"runner", "early riser"}})

	assert.Contains(t, prompt, "Jo")
	assert.Contains(t, prompt, "direct")
	assert.Contains(t, prompt, "runner, early riser")
}
