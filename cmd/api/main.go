package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vitalloop/insight-engine/internal/adapters/cache"
	"github.com/vitalloop/insight-engine/internal/adapters/database"
	"github.com/vitalloop/insight-engine/internal/adapters/events"
	"github.com/vitalloop/insight-engine/internal/adapters/memory"
	"github.com/vitalloop/insight-engine/internal/adapters/providers/ai"
	"github.com/vitalloop/insight-engine/internal/api/handlers"
	"github.com/vitalloop/insight-engine/internal/api/middleware"
	"github.com/vitalloop/insight-engine/internal/api/routes"
	"github.com/vitalloop/insight-engine/internal/application/services"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/internal/domain/repositories"
	"github.com/vitalloop/insight-engine/internal/infrastructure/clients/postgres"
	"github.com/vitalloop/insight-engine/internal/infrastructure/clients/redis"
	"github.com/vitalloop/insight-engine/internal/infrastructure/observability"
	"github.com/vitalloop/insight-engine/pkg/config"
	"github.com/vitalloop/insight-engine/pkg/secrets"
)

func main() {
	// Pull provider API keys and DB credentials from Vault before the
	// config loader reads the environment.
	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 10*time.Second)
	vaultResult, err := secrets.ApplyVaultSecrets(vaultCtx, secrets.LoadVaultConfigFromEnv(""))
	vaultCancel()
	if err != nil {
		log.Warn().Err(err).Msg("vault secrets not applied")
	} else if vaultResult.Enabled {
		log.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).
			Str("path", vaultResult.Path).Msg("vault secrets applied")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize Redis client. Redis is optional: it backs the shared
	// cache and the event bus when available.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, falling back to in-process cache and no event bus")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("redis client initialized")
	}

	// Pick the insight cache backend.
	var cacheProvider providers.CacheProvider
	switch {
	case cfg.Cache.Backend == "redis" && redisClient != nil:
		cacheProvider = cache.NewRedisAdapter(redisClient)
		log.Info().Msg("insight cache backed by redis")
	default:
		cacheProvider = cache.NewMemoryAdapter(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		log.Info().Int("max_entries", cfg.Cache.MaxEntries).Msg("insight cache backed by in-process LRU")
	}

	// Initialize event bus for insight lifecycle events
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	} else {
		log.Info().Msg("event bus disabled (redis not available)")
	}

	// Optional Postgres archive for durable feedback copies.
	var feedbackArchive repositories.FeedbackArchive
	if cfg.Archive.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Archive)
		if err != nil {
			log.Warn().Err(err).Msg("feedback archive unavailable, continuing without it")
		} else {
			defer pgClient.Close()
			feedbackArchive = database.NewFeedbackArchiveAdapter(pgClient.DB())
			log.Info().Msg("feedback archive initialized")
		}
	}

	// Build the provider chain in configured priority order.
	chain := ai.NewProviderChain(&cfg.Providers)

	// Initialize services
	insightService := services.NewInsightService(chain, cacheProvider, eventBus, metrics, services.InsightServiceConfig{
		ProviderTimeout: cfg.Providers.Timeout,
		CacheTTLSeconds: cfg.Cache.TTLSeconds,
	})
	feedbackService := services.NewFeedbackService(memory.NewFeedbackStore(), feedbackArchive)
	optimizerService := services.NewPromptOptimizerService(feedbackService)

	// Initialize handlers
	insightHandler := handlers.NewInsightHandler(insightService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cacheProvider)
	telemetryHandler := handlers.NewTelemetryHandler(insightService)
	optimizationHandler := handlers.NewOptimizationHandler(optimizerService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Initialize cache middleware for the telemetry endpoints
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
	}

	// Set up router
	router := routes.NewRouter(
		insightHandler,
		feedbackHandler,
		telemetryHandler,
		optimizationHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // long enough for provider fallback and SSE flushes
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
