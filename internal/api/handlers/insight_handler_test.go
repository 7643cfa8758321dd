package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/adapters/cache"
	"github.com/vitalloop/insight-engine/internal/application/services"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

type cannedProvider struct {
	name string
	text string
	err  error
}

func (p *cannedProvider) Name() string { return p.name }

func (p *cannedProvider) Generate(context.Context, entities.InsightCategory, map[string]float64, *entities.PersonaContext) (string, error) {
	return p.text, p.err
}

func newInsightService(chain ...providers.InsightProvider) *services.InsightService {
	return services.NewInsightService(chain, cache.NewMemoryAdapter(64, time.Minute), nil, nil, services.InsightServiceConfig{
		ProviderTimeout: time.Second,
		CacheTTLSeconds: 60,
	})
}

func TestGenerateInsightEndpoint(t *testing.T) {
	svc := newInsightService(&cannedProvider{name: "mock", text: "Nice consistency this week."})
	handler := NewInsightHandler(svc)

	body := `{"category":"sleep","metrics":{"hours":7.5}}`
	req := httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.GenerateInsight(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var insight entities.HealthInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insight))
	assert.Equal(t, "Nice consistency this week.", insight.Message)
	assert.Equal(t, entities.InsightCategorySleep, insight.Category)
	assert.Equal(t, []string{"hours"}, insight.RelatedMetrics)
}

func TestGenerateInsightEndpointRejectsBadPayload(t *testing.T) {
	handler := NewInsightHandler(newInsightService(&cannedProvider{name: "mock", text: "x"}))

	req := httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.GenerateInsight(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInsightEndpointUnknownCategory(t *testing.T) {
	handler := NewInsightHandler(newInsightService(&cannedProvider{name: "mock", text: "x"}))

	req := httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader(`{"category":"astrology","metrics":{}}`))
	rec := httptest.NewRecorder()

	handler.GenerateInsight(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateInsightEndpointExhausted(t *testing.T) {
	handler := NewInsightHandler(newInsightService(&cannedProvider{name: "openai", err: providers.ErrProviderCapacity}))

	req := httptest.NewRequest(http.MethodPost, "/api/insights", strings.NewReader(`{"category":"sleep","metrics":{"hours":6}}`))
	rec := httptest.NewRecorder()

	handler.GenerateInsight(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGeneratePersonaInsightEndpoint(t *testing.T) {
	handler := NewInsightHandler(newInsightService(&cannedProvider{name: "mock", text: "Jo, great run streak."}))

	body := `{"category":"physical","metrics":{"steps":9000},"persona":{"id":"user-7","name":"Jo"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/insights/persona", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.GeneratePersonaInsight(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var insight entities.HealthInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insight))
	assert.True(t, strings.HasPrefix(insight.ID, "persona-user-7-"), "id = %s", insight.ID)
}

func TestGeneratePersonaInsightEndpointRequiresPersona(t *testing.T) {
	handler := NewInsightHandler(newInsightService(&cannedProvider{name: "mock", text: "x"}))

	req := httptest.NewRequest(http.MethodPost, "/api/insights/persona", strings.NewReader(`{"category":"physical","metrics":{"steps":1}}`))
	rec := httptest.NewRecorder()

	handler.GeneratePersonaInsight(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
