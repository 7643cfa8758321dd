package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vitalloop/insight-engine/internal/infrastructure/clients/engineapi"
	"github.com/vitalloop/insight-engine/internal/infrastructure/observability"
)

// optimizer fetches feedback-driven prompt optimizations for one insight
// and prints them, so prompt changes can be reviewed before rollout.
func main() {
	var (
		baseURL   = flag.String("api", envOr("INSIGHT_API_URL", "http://localhost:8080"), "engine API base URL")
		insightID = flag.String("insight", "", "insight id to optimize for (required)")
		withStats = flag.Bool("stats", false, "also print the feedback stats the suggestions are based on")
		timeout   = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	observability.InitLogger("insight-optimizer", envOr("APP_ENV", "development"))

	if *insightID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := engineapi.NewClient(*baseURL)

	result, err := client.OptimizePrompt(ctx, *insightID)
	if err != nil {
		log.Fatal().Err(err).Str("insight_id", *insightID).Msg("optimization request failed")
	}

	if *withStats {
		stats, err := client.GetFeedbackStats(ctx, *insightID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch feedback stats")
		} else {
			printJSON("feedback stats", stats)
		}
	}

	for _, opt := range result.Optimizations {
		fmt.Printf("strategy=%s confidence=%.2f data_points=%d expected_improvement=%.2f\n",
			opt.Strategy, opt.Confidence, opt.Metadata.DataPoints, opt.Metadata.ExpectedImprovement)
		for _, change := range opt.SuggestedChanges {
			fmt.Printf("  [%s] %s: %s (%s)\n", change.Type, change.Target, change.Suggestion, change.Reason)
		}
	}
}

func printJSON(label string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("label", label).Msg("failed to render output")
		return
	}
	fmt.Printf("%s:\n%s\n", label, data)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
