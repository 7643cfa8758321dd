package services

import (
	"sort"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
)

// estimatedCostPerCall is a rough per-request spend estimate by provider,
// used only for the dashboard comparison.
var estimatedCostPerCall = map[string]float64{
	"openai":    0.0006,
	"anthropic": 0.0009,
	"mock":      0,
}

// healthScore derives the 0-100 score from accumulated counters:
// 100 x successRate minus a latency penalty of avgLatencyMs/100, capped at
// 40 points. Monotone in both inputs; an untouched provider scores 100.
func (c *providerCounters) healthScore() float64 {
	score := 100*c.successRate() - c.latencyPenalty()
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (c *providerCounters) successRate() float64 {
	if c.total == 0 {
		return 1
	}
	return float64(c.successes) / float64(c.total)
}

func (c *providerCounters) averageLatencyMs() float64 {
	if c.total == 0 {
		return 0
	}
	return float64(c.totalLatency.Milliseconds()) / float64(c.total)
}

func (c *providerCounters) latencyPenalty() float64 {
	penalty := c.averageLatencyMs() / 100
	if penalty > 40 {
		return 40
	}
	return penalty
}

func (c *providerCounters) snapshot() entities.ProviderHealth {
	return entities.ProviderHealth{
		HealthScore:      c.healthScore(),
		AverageLatencyMs: c.averageLatencyMs(),
		ErrorRate:        1 - c.successRate(),
		SuccessRate:      c.successRate(),
		TotalRequests:    c.total,
	}
}

// GetCacheStats returns a read-only snapshot of the cache counters.
func (s *InsightService) GetCacheStats() entities.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := 0
	if sizer, ok := s.cache.(providers.CacheSizer); ok {
		size = sizer.Len()
	}
	return entities.CacheStats{
		Hits:   s.hits,
		Misses: s.misses,
		Size:   size,
	}
}

// GetProviderHealth returns the derived health record per provider.
func (s *InsightService) GetProviderHealth() map[string]entities.ProviderHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]entities.ProviderHealth, len(s.health))
	for name, counters := range s.health {
		result[name] = counters.snapshot()
	}
	return result
}

// GetErrorStats returns a copy of the error timeline.
func (s *InsightService) GetErrorStats() entities.ErrorStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeline := make([]entities.ErrorBucket, len(s.timeline))
	copy(timeline, s.timeline)

	total := 0
	for _, bucket := range timeline {
		total += bucket.Count
	}
	return entities.ErrorStats{Timeline: timeline, TotalErrors: total}
}

// GetTelemetrySnapshot returns the combined dashboard projection.
func (s *InsightService) GetTelemetrySnapshot() entities.TelemetrySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	averageLatency := 0.0
	if s.generated > 0 {
		averageLatency = float64(s.totalLatency.Milliseconds()) / float64(s.generated)
	}

	hitRate := 0.0
	if lookups := s.hits + s.misses; lookups > 0 {
		hitRate = float64(s.hits) / float64(lookups)
	}

	providerHealth := make(map[string]entities.ProviderHealth, len(s.health))
	for name, counters := range s.health {
		providerHealth[name] = counters.snapshot()
	}

	return entities.TelemetrySnapshot{
		Insights: entities.InsightTelemetry{
			TotalGenerated:   s.generated,
			AverageLatencyMs: averageLatency,
			CacheHitRate:     hitRate,
		},
		Cache:     entities.CacheTelemetry{HitRate: hitRate},
		Providers: providerHealth,
	}
}

// GetProviderComparison sets providers side by side on cost and
// performance.
func (s *InsightService) GetProviderComparison() entities.ProviderComparison {
	s.mu.Lock()
	defer s.mu.Unlock()

	costs := make(map[string]entities.ProviderCost, len(s.health))
	performance := make(map[string]entities.ProviderPerformance, len(s.health))
	for name, counters := range s.health {
		perCall := estimatedCostPerCall[name]
		costs[name] = entities.ProviderCost{
			EstimatedCostPerCall: perCall,
			TotalRequests:        counters.total,
			EstimatedTotalCost:   perCall * float64(counters.total),
		}
		performance[name] = entities.ProviderPerformance{
			AverageLatencyMs: counters.averageLatencyMs(),
			SuccessRate:      counters.successRate(),
			HealthScore:      counters.healthScore(),
		}
	}

	return entities.ProviderComparison{
		CostComparison:        costs,
		PerformanceComparison: performance,
	}
}

// GetUsagePatterns reports category popularity and hour-of-day request
// distribution.
func (s *InsightService) GetUsagePatterns() entities.UsagePatterns {
	s.mu.Lock()
	defer s.mu.Unlock()

	popular := make([]entities.CategoryCount, 0, len(s.categories))
	for category, count := range s.categories {
		popular = append(popular, entities.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].Category < popular[j].Category
	})

	hours := make(map[int]int64, len(s.hours))
	for hour, count := range s.hours {
		hours[hour] = count
	}

	return entities.UsagePatterns{
		PopularCategories: popular,
		TimeDistribution:  hours,
	}
}
