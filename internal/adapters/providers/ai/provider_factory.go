package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/pkg/config"
)

// NewProviderChain builds the ordered provider chain from configuration.
// Providers appear in the configured priority order; ones without an API
// key are skipped. Each real provider is wrapped in a circuit breaker so a
// flapping backend sheds load quickly instead of eating its timeout budget
// on every request. A mock provider is appended when allowed, or used alone
// when nothing real is configured.
func NewProviderChain(cfg *config.ProvidersConfig) []providers.InsightProvider {
	var chain []providers.InsightProvider

	for _, name := range cfg.Order {
		switch name {
		case "openai":
			adapter, err := NewOpenAIAdapter(&cfg.OpenAI)
			if err != nil {
				log.Info().Str("provider", name).Msg("insight provider not configured, skipping")
				continue
			}
			chain = append(chain, withBreaker(adapter))
		case "anthropic":
			adapter, err := NewAnthropicAdapter(&cfg.Anthropic)
			if err != nil {
				log.Info().Str("provider", name).Msg("insight provider not configured, skipping")
				continue
			}
			chain = append(chain, withBreaker(adapter))
		default:
			log.Warn().Str("provider", name).Msg("unknown insight provider in configured order")
		}
	}

	if len(chain) == 0 || cfg.AllowMockFallback {
		chain = append(chain, NewMockAdapter())
	}

	return chain
}

// breakerProvider wraps an InsightProvider with a circuit breaker. An open
// breaker is reported as a capacity failure so the engine falls through to
// the next provider immediately.
type breakerProvider struct {
	inner   providers.InsightProvider
	breaker *gobreaker.CircuitBreaker
}

func withBreaker(inner providers.InsightProvider) providers.InsightProvider {
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).
				Msg("insight provider circuit breaker state changed")
		},
	}

	return &breakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *breakerProvider) Name() string {
	return p.inner.Name()
}

func (p *breakerProvider) Generate(ctx context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Generate(ctx, category, metrics, persona)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", fmt.Errorf("%w: circuit breaker open for %s", providers.ErrProviderCapacity, p.inner.Name())
		}
		return "", err
	}

	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected breaker result type %T", result)
	}
	return text, nil
}

var _ providers.InsightProvider = (*breakerProvider)(nil)
