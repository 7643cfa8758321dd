package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/adapters/memory"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

func seedFeedback(t *testing.T, svc *FeedbackService, insightID string, category entities.FeedbackCategory, score, count int, tags ...string) {
	t.Helper()
	for i := 0; i < count; i++ {
		input := validFeedback(insightID)
		input.Category = category
		input.Score = score
		if len(tags) > 0 {
			input.Annotations.Tags = append([]string(nil), tags...)
		}
		require.NoError(t, svc.AddFeedback(context.Background(), input))
	}
}

func newOptimizerFixture() (*PromptOptimizerService, *FeedbackService) {
	feedback := NewFeedbackService(memory.NewFeedbackStore(), nil)
	return NewPromptOptimizerService(feedback), feedback
}

func TestOptimizePromptNoFeedback(t *testing.T) {
	optimizer, _ := newOptimizerFixture()

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)
	require.Len(t, results, 3, "every strategy reports even without data")

	for _, result := range results {
		assert.Equal(t, float64(0), result.Confidence)
		assert.Empty(t, result.SuggestedChanges)
		assert.Equal(t, 0, result.Metadata.DataPoints)
	}
}

func TestOptimizePromptBelowSampleFloor(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 2, 2)

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)

	accuracy := findStrategy(t, results, "accuracy_optimization")
	assert.Equal(t, float64(0), accuracy.Confidence)
	assert.Empty(t, accuracy.SuggestedChanges)
	assert.Equal(t, 2, accuracy.Metadata.DataPoints)
}

func TestOptimizePromptConfidenceInterpolation(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		confidence float64
	}{
		{name: "at floor", count: 3, confidence: 0},
		{name: "midway", count: 5, confidence: 2.0 / 7.0},
		{name: "near optimum", count: 9, confidence: 6.0 / 7.0},
		{name: "at optimum", count: 10, confidence: 1},
		{name: "beyond optimum", count: 15, confidence: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimizer, feedback := newOptimizerFixture()
			seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryClarity, 2, tt.count)

			results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
			require.NoError(t, err)

			clarity := findStrategy(t, results, "clarity_improvement")
			assert.InDelta(t, tt.confidence, clarity.Confidence, 1e-9)
			assert.Equal(t, tt.count, clarity.Metadata.DataPoints)
			assert.Contains(t, clarity.Metadata.AffectedCategories, entities.FeedbackCategoryClarity)
		})
	}
}

func TestOptimizePromptIgnoresHighScores(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 5, 10)
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 3, 4)

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)

	accuracy := findStrategy(t, results, "accuracy_optimization")
	assert.Equal(t, 4, accuracy.Metadata.DataPoints, "only scores at or below 3 are relevant")
	assert.Equal(t, []entities.FeedbackCategory{entities.FeedbackCategoryAccuracy}, accuracy.Metadata.AffectedCategories)
}

func TestOptimizePromptRanking(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	// Same relevant volume per category, so ranking falls to strategy weight.
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 2, 6)
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryClarity, 2, 6)
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryActionability, 2, 6)

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "accuracy_optimization", results[0].Strategy)
	assert.Equal(t, "clarity_improvement", results[1].Strategy)
	assert.Equal(t, "actionability_enhancement", results[2].Strategy)
}

func TestOptimizePromptRankingByVolume(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	// Heavy actionability signal should outrank a weak accuracy signal
	// despite the lower strategy weight.
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 2, 3)
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryActionability, 2, 10)

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)

	assert.Equal(t, "actionability_enhancement", results[0].Strategy)
}

func TestOptimizePromptTagDrivenChanges(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryClarity, 2, 5, "too-technical")

	results, err := optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)

	clarity := findStrategy(t, results, "clarity_improvement")
	require.NotEmpty(t, clarity.SuggestedChanges)

	var foundTerminology bool
	for _, change := range clarity.SuggestedChanges {
		if change.Target == "terminology" {
			foundTerminology = true
			assert.Equal(t, entities.ChangeTypeRemove, change.Type)
		}
	}
	assert.True(t, foundTerminology, "too-technical tag should trigger a terminology change")
}

func TestOptimizePromptIsReadOnly(t *testing.T) {
	optimizer, feedback := newOptimizerFixture()
	seedFeedback(t, feedback, "insight-1", entities.FeedbackCategoryAccuracy, 2, 5)

	before, err := feedback.GetInsightFeedback(context.Background(), "insight-1")
	require.NoError(t, err)

	_, err = optimizer.OptimizePrompt(context.Background(), "insight-1")
	require.NoError(t, err)

	after, err := feedback.GetInsightFeedback(context.Background(), "insight-1")
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func findStrategy(t *testing.T, results []entities.PromptOptimization, name string) entities.PromptOptimization {
	t.Helper()
	for _, result := range results {
		if result.Strategy == name {
			return result
		}
	}
	t.Fatalf("strategy %s not found", name)
	return entities.PromptOptimization{}
}
