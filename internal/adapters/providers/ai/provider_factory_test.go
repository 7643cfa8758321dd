package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/pkg/config"
)

func TestNewProviderChainSkipsUnconfigured(t *testing.T) {
	cfg := &config.ProvidersConfig{
		Order:             []string{"openai", "anthropic"},
		OpenAI:            config.ProviderConfig{APIKey: "sk-test"},
		AllowMockFallback: false,
	}

	chain := NewProviderChain(cfg)
	require.Len(t, chain, 1)
	assert.Equal(t, "openai", chain[0].Name())
}

func TestNewProviderChainAppendsMockFallback(t *testing.T) {
	cfg := &config.ProvidersConfig{
		Order:             []string{"anthropic"},
		Anthropic:         config.ProviderConfig{APIKey: "sk-test"},
		AllowMockFallback: true,
	}

	chain := NewProviderChain(cfg)
	require.Len(t, chain, 2)
	assert.Equal(t, "anthropic", chain[0].Name())
	assert.Equal(t, "mock", chain[1].Name())
}

func TestNewProviderChainMockOnlyWhenNothingConfigured(t *testing.T) {
	cfg := &config.ProvidersConfig{
		Order:             []string{"openai", "anthropic"},
		AllowMockFallback: false,
	}

	chain := NewProviderChain(cfg)
	require.Len(t, chain, 1, "mock is mandatory when no real provider exists")
	assert.Equal(t, "mock", chain[0].Name())
}

type failingProvider struct {
	err error
}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) Generate(context.Context, entities.InsightCategory, map[string]float64, *entities.PersonaContext) (string, error) {
	return "", p.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	wrapped := withBreaker(&failingProvider{err: errors.New("backend down")})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := wrapped.Generate(ctx, entities.InsightCategorySleep, nil, nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, providers.ErrProviderCapacity), "breaker must pass errors through while closed")
	}

	_, err := wrapped.Generate(ctx, entities.InsightCategorySleep, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, providers.ErrProviderCapacity), "open breaker must surface as a capacity failure")
}
