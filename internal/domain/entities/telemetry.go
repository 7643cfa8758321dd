package entities

import "time"

// ProviderHealth summarizes one AI provider's accumulated reliability.
type ProviderHealth struct {
	HealthScore      float64 `json:"health_score"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	SuccessRate      float64 `json:"success_rate"`
	TotalRequests    int64   `json:"total_requests"`
}

// ErrorBucket is one minute-aligned bucket in the error timeline.
type ErrorBucket struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// ErrorStats is the read-only error timeline projection.
type ErrorStats struct {
	Timeline    []ErrorBucket `json:"timeline"`
	TotalErrors int           `json:"total_errors"`
}

// CacheStats is a read-only snapshot of the insight cache counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// InsightTelemetry aggregates generation outcomes.
type InsightTelemetry struct {
	TotalGenerated   int64   `json:"total_generated"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}

// CacheTelemetry is the cache portion of the telemetry snapshot.
type CacheTelemetry struct {
	HitRate float64 `json:"hit_rate"`
}

// TelemetrySnapshot is the read-only projection polled by dashboards.
type TelemetrySnapshot struct {
	Insights  InsightTelemetry          `json:"insights"`
	Cache     CacheTelemetry            `json:"cache"`
	Providers map[string]ProviderHealth `json:"providers"`
}

// ProviderCost estimates spend per provider from accumulated request counts.
type ProviderCost struct {
	EstimatedCostPerCall float64 `json:"estimated_cost_per_call"`
	TotalRequests        int64   `json:"total_requests"`
	EstimatedTotalCost   float64 `json:"estimated_total_cost"`
}

// ProviderPerformance is the latency/reliability side of the comparison.
type ProviderPerformance struct {
	AverageLatencyMs float64 `json:"average_latency_ms"`
	SuccessRate      float64 `json:"success_rate"`
	HealthScore      float64 `json:"health_score"`
}

// ProviderComparison sets providers side by side for the dashboard.
type ProviderComparison struct {
	CostComparison        map[string]ProviderCost        `json:"cost_comparison"`
	PerformanceComparison map[string]ProviderPerformance `json:"performance_comparison"`
}

// CategoryCount pairs an insight category with its request count.
type CategoryCount struct {
	Category InsightCategory `json:"category"`
	Count    int64           `json:"count"`
}

// UsagePatterns describes how the engine is being used over time.
type UsagePatterns struct {
	PopularCategories []CategoryCount `json:"popular_categories"`
	TimeDistribution  map[int]int64   `json:"time_distribution"`
}
