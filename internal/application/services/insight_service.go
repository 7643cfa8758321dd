package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalloop/insight-engine/internal/adapters/events"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/internal/infrastructure/observability"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
)

const (
	// errorBucketInterval is the error timeline granularity.
	errorBucketInterval = time.Minute

	// maxErrorBuckets caps timeline retention at 24h of minute buckets.
	maxErrorBuckets = 1440
)

// InsightServiceConfig tunes the engine.
type InsightServiceConfig struct {
	ProviderTimeout time.Duration
	CacheTTLSeconds int
}

// InsightService turns raw health metrics into natural-language insights.
// It resolves each request to a cache entry or a provider call, coalesces
// concurrent identical requests, falls back across providers, and keeps
// per-provider health and usage telemetry.
//
// Construct one instance at the composition root and share it; all state
// lives behind its mutex.
type InsightService struct {
	providers []providers.InsightProvider
	cache     providers.CacheProvider
	bus       providers.EventBus
	metrics   *observability.Metrics
	cfg       InsightServiceConfig

	mu           sync.Mutex
	hits         int64
	misses       int64
	inflight     map[string]*inflightCall
	health       map[string]*providerCounters
	timeline     []entities.ErrorBucket
	generated    int64
	totalLatency time.Duration
	categories   map[entities.InsightCategory]int64
	hours        map[int]int64
}

// inflightCall is the pending result shared by coalesced callers.
type inflightCall struct {
	done    chan struct{}
	insight *entities.HealthInsight
	err     error
}

// providerCounters accumulates raw provider outcomes; the derived
// ProviderHealth projection is computed on read.
type providerCounters struct {
	total        int64
	successes    int64
	totalLatency time.Duration
}

// NewInsightService creates the engine. bus and metrics may be nil.
func NewInsightService(chain []providers.InsightProvider, cache providers.CacheProvider, bus providers.EventBus, metrics *observability.Metrics, cfg InsightServiceConfig) *InsightService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = 1800
	}
	return &InsightService{
		providers:  chain,
		cache:      cache,
		bus:        bus,
		metrics:    metrics,
		cfg:        cfg,
		inflight:   make(map[string]*inflightCall),
		health:     make(map[string]*providerCounters),
		categories: make(map[entities.InsightCategory]int64),
		hours:      make(map[int]int64),
	}
}

// Fingerprint derives the deterministic cache key for a category/metrics
// pair. Metric names are sorted first, so two requests with the same values
// map to the same key no matter how the map was built.
func Fingerprint(category entities.InsightCategory, metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(string(category))
	for _, name := range names {
		sb.WriteByte('|')
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(metrics[name], 'f', -1, 64))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// GenerateInsight returns a cached insight for the request or generates one
// through the provider chain. Concurrent calls with the same fingerprint
// share a single provider dispatch.
func (s *InsightService) GenerateInsight(ctx context.Context, req *entities.InsightRequest) (*entities.HealthInsight, error) {
	if !entities.ValidInsightCategory(req.Category) {
		s.mu.Lock()
		s.recordErrorLocked(time.Now())
		s.mu.Unlock()
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown insight category: %q", req.Category))
	}

	fingerprint := Fingerprint(req.Category, req.Metrics)

	s.mu.Lock()
	s.recordUsageLocked(req.Category, time.Now())

	if call, ok := s.inflight[fingerprint]; ok {
		// Followers are served without a provider dispatch of their own, so
		// they count as cache hits; only the leader records the miss.
		s.hits++
		s.mu.Unlock()
		observability.RecordCacheHit(ctx, s.metrics)
		select {
		case <-call.done:
			return call.insight, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if data, err := s.cache.Get(ctx, fingerprint); err == nil {
		var cached entities.HealthInsight
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			s.hits++
			s.mu.Unlock()
			observability.RecordCacheHit(ctx, s.metrics)
			return &cached, nil
		}
	}

	s.misses++
	call := &inflightCall{done: make(chan struct{})}
	s.inflight[fingerprint] = call
	s.mu.Unlock()
	observability.RecordCacheMiss(ctx, s.metrics)

	insight, err := s.dispatch(ctx, req.Category, req.Metrics, nil)

	s.mu.Lock()
	delete(s.inflight, fingerprint)
	s.mu.Unlock()

	if err == nil {
		if data, jsonErr := json.Marshal(insight); jsonErr == nil {
			// Cache population is best-effort; a failed Set only costs a
			// future regeneration.
			_ = s.cache.Set(ctx, fingerprint, data, s.cfg.CacheTTLSeconds)
		}
	}

	call.insight, call.err = insight, err
	close(call.done)

	return insight, err
}

// GenerateInsightForPersona generates a persona-scoped insight. The shared
// cache is never consulted or populated: persona context makes results
// non-fungible across users. The insight id embeds the persona id so
// downstream analytics can attribute it.
func (s *InsightService) GenerateInsightForPersona(ctx context.Context, req *entities.PersonaInsightRequest) (*entities.HealthInsight, error) {
	if !entities.ValidInsightCategory(req.Category) {
		s.mu.Lock()
		s.recordErrorLocked(time.Now())
		s.mu.Unlock()
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown insight category: %q", req.Category))
	}
	if req.Persona.ID == "" {
		s.mu.Lock()
		s.recordErrorLocked(time.Now())
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("persona id is required")
	}

	s.mu.Lock()
	s.recordUsageLocked(req.Category, time.Now())
	s.mu.Unlock()

	return s.dispatch(ctx, req.Category, req.Metrics, &req.Persona)
}

// dispatch walks the provider chain in priority order. Each provider gets
// one attempt; failures are recorded and fall through to the next provider.
func (s *InsightService) dispatch(ctx context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (*entities.HealthInsight, error) {
	logger := observability.LoggerFromContext(ctx)

	var failures []error
	for _, provider := range s.providers {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		start := time.Now()
		text, err := provider.Generate(callCtx, category, metrics, persona)
		latency := time.Since(start)
		cancel()

		observability.RecordProviderCall(ctx, s.metrics, provider.Name(), latency, err)

		if err != nil {
			s.recordProviderFailure(provider.Name(), latency)
			logger.Warn().
				Str("provider", provider.Name()).
				Str("category", string(category)).
				Str("reason", string(providers.ClassifyFailure(err))).
				Dur("latency", latency).
				Err(err).
				Msg("insight provider call failed, falling back")
			failures = append(failures, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}

		s.recordProviderSuccess(provider.Name(), latency)
		insight := buildInsight(category, metrics, persona, text, provider.Name())
		s.publishEvent(&entities.InsightEvent{
			ID:        uuid.New().String(),
			Type:      entities.InsightEventGenerated,
			InsightID: insight.ID,
			Category:  category,
			Provider:  provider.Name(),
			Timestamp: time.Now().UTC(),
		})
		return insight, nil
	}

	err := apperrors.NewExhaustedError("all insight providers failed", errors.Join(failures...))
	s.publishEvent(&entities.InsightEvent{
		ID:        uuid.New().String(),
		Type:      entities.InsightEventFailed,
		Category:  category,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	})
	return nil, err
}

func buildInsight(category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext, text, source string) *entities.HealthInsight {
	id := uuid.New().String()
	if persona != nil {
		id = fmt.Sprintf("persona-%s-%s", persona.ID, id)
	}

	related := make([]string, 0, len(metrics))
	for name := range metrics {
		related = append(related, name)
	}
	sort.Strings(related)

	return &entities.HealthInsight{
		ID:             id,
		Type:           entities.InsightTypeSuccess,
		Category:       category,
		Message:        text,
		Date:           time.Now().UTC(),
		RelatedMetrics: related,
		Source:         source,
	}
}

func (s *InsightService) publishEvent(event *entities.InsightEvent) {
	if s.bus == nil {
		return
	}
	// Fresh context: publishing must not inherit a caller's cancellation.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, events.ChannelInsights, event); err != nil {
		observability.GetLogger().Warn().Err(err).Str("type", string(event.Type)).
			Msg("failed to publish insight event")
	}
}

func (s *InsightService) recordProviderSuccess(name string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := s.countersLocked(name)
	counters.total++
	counters.successes++
	counters.totalLatency += latency

	s.generated++
	s.totalLatency += latency
}

func (s *InsightService) recordProviderFailure(name string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := s.countersLocked(name)
	counters.total++
	counters.totalLatency += latency

	s.recordErrorLocked(time.Now())
}

func (s *InsightService) countersLocked(name string) *providerCounters {
	counters, ok := s.health[name]
	if !ok {
		counters = &providerCounters{}
		s.health[name] = counters
	}
	return counters
}

// recordErrorLocked appends to the current timeline bucket or opens a new
// one once the bucketing interval has passed.
func (s *InsightService) recordErrorLocked(now time.Time) {
	bucket := now.UTC().Truncate(errorBucketInterval)
	if n := len(s.timeline); n > 0 && s.timeline[n-1].Timestamp.Equal(bucket) {
		s.timeline[n-1].Count++
		return
	}
	s.timeline = append(s.timeline, entities.ErrorBucket{Timestamp: bucket, Count: 1})
	if len(s.timeline) > maxErrorBuckets {
		s.timeline = s.timeline[len(s.timeline)-maxErrorBuckets:]
	}
}

func (s *InsightService) recordUsageLocked(category entities.InsightCategory, now time.Time) {
	s.categories[category]++
	s.hours[now.UTC().Hour()]++
}
