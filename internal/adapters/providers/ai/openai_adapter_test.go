package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/pkg/config"
)

func newOpenAITestAdapter(t *testing.T, handler http.HandlerFunc) *OpenAIAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewOpenAIAdapter(&config.ProviderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	adapter.baseURL = server.URL
	return adapter
}

func TestOpenAIAdapterRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIAdapter(&config.ProviderConfig{})
	require.Error(t, err)
}

func TestOpenAIAdapterParsesOutputText(t *testing.T) {
	adapter := newOpenAITestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"output": [
				{"content": [{"type": "reasoning", "text": ""}]},
				{"content": [{"type": "output_text", "text": "  Your sleep is trending up. "}]}
			]
		}`))
	})

	text, err := adapter.Generate(context.Background(), entities.InsightCategorySleep, map[string]float64{"hours": 7.5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Your sleep is trending up.", text)
}

func TestOpenAIAdapterStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: providers.ErrProviderRateLimited},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: providers.ErrProviderCapacity},
		{name: "bad gateway", status: http.StatusBadGateway, wantErr: providers.ErrProviderCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newOpenAITestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := adapter.Generate(context.Background(), entities.InsightCategoryVitals, map[string]float64{"heart_rate": 60}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestOpenAIAdapterUnexpectedStatus(t *testing.T) {
	adapter := newOpenAITestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := adapter.Generate(context.Background(), entities.InsightCategoryVitals, nil, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrProviderRateLimited))
	assert.False(t, errors.Is(err, providers.ErrProviderCapacity))
}

func TestOpenAIAdapterEmptyOutput(t *testing.T) {
	adapter := newOpenAITestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": []}`))
	})

	_, err := adapter.Generate(context.Background(), entities.InsightCategorySleep, nil, nil)
	require.Error(t, err)
}
