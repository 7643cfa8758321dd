package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

const (
	// minSamples is the relevant-feedback floor below which a strategy has
	// no signal to act on.
	minSamples = 3

	// optimalSamples is where confidence saturates at 1.
	optimalSamples = 10

	lowScoreThreshold = 3
)

// OptimizationStrategy proposes prompt changes for one feedback category.
// relevant selects the subset of feedback the strategy reasons over; build
// turns that subset into concrete suggested changes.
type OptimizationStrategy struct {
	Name     string
	Weight   float64
	Category entities.FeedbackCategory
	build    func(relevant []*entities.InsightFeedback, stats *entities.FeedbackStats) []entities.SuggestedChange
}

// PromptOptimizerService runs the fixed strategy set over one insight's
// feedback and ranks the proposals. Pure read path: it never mutates the
// feedback store or the engine.
type PromptOptimizerService struct {
	feedback   *FeedbackService
	strategies []OptimizationStrategy
}

// NewPromptOptimizerService creates an optimizer with the default
// strategies and weights.
func NewPromptOptimizerService(feedback *FeedbackService) *PromptOptimizerService {
	return &PromptOptimizerService{
		feedback:   feedback,
		strategies: defaultStrategies(),
	}
}

// OptimizePrompt runs every strategy over the insight's feedback and
// returns the proposals sorted by confidence x strategy weight, highest
// first. Ties favor the heavier strategy.
func (s *PromptOptimizerService) OptimizePrompt(ctx context.Context, insightID string) ([]entities.PromptOptimization, error) {
	records, err := s.feedback.GetInsightFeedback(ctx, insightID)
	if err != nil {
		return nil, err
	}
	stats, err := s.feedback.GetFeedbackStats(ctx, insightID)
	if err != nil {
		return nil, err
	}

	results := make([]entities.PromptOptimization, 0, len(s.strategies))
	for _, strategy := range s.strategies {
		results = append(results, runStrategy(strategy, records, stats))
	}

	sort.SliceStable(results, func(i, j int) bool {
		wi := results[i].Confidence * strategyWeight(s.strategies, results[i].Strategy)
		wj := results[j].Confidence * strategyWeight(s.strategies, results[j].Strategy)
		if wi != wj {
			return wi > wj
		}
		return strategyWeight(s.strategies, results[i].Strategy) > strategyWeight(s.strategies, results[j].Strategy)
	})

	return results, nil
}

func runStrategy(strategy OptimizationStrategy, records []*entities.InsightFeedback, stats *entities.FeedbackStats) entities.PromptOptimization {
	relevant := make([]*entities.InsightFeedback, 0, len(records))
	for _, record := range records {
		if record.Category == strategy.Category && record.Score <= lowScoreThreshold {
			relevant = append(relevant, record)
		}
	}

	optimization := entities.PromptOptimization{
		Strategy:         strategy.Name,
		SuggestedChanges: []entities.SuggestedChange{},
		Metadata: entities.OptimizationMetadata{
			BaselineScore:      stats.AverageScore,
			AffectedCategories: []entities.FeedbackCategory{strategy.Category},
			DataPoints:         len(relevant),
		},
	}

	if len(relevant) < minSamples {
		return optimization
	}

	optimization.Confidence = confidenceFor(len(relevant))
	optimization.SuggestedChanges = strategy.build(relevant, stats)
	optimization.Metadata.ExpectedImprovement = expectedImprovement(relevant, optimization.Confidence)
	return optimization
}

// confidenceFor interpolates linearly from 0 at minSamples to 1 at
// optimalSamples, clamped to [0, 1].
func confidenceFor(sampleSize int) float64 {
	confidence := float64(sampleSize-minSamples) / float64(optimalSamples-minSamples)
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// expectedImprovement estimates how far the relevant scores sit below a
// "good" rating of 4, discounted by confidence.
func expectedImprovement(relevant []*entities.InsightFeedback, confidence float64) float64 {
	sum := 0.0
	for _, record := range relevant {
		sum += float64(record.Score)
	}
	gap := 4 - sum/float64(len(relevant))
	if gap < 0 {
		gap = 0
	}
	return gap * confidence
}

func strategyWeight(strategies []OptimizationStrategy, name string) float64 {
	for _, strategy := range strategies {
		if strategy.Name == name {
			return strategy.Weight
		}
	}
	return 0
}

func defaultStrategies() []OptimizationStrategy {
	return []OptimizationStrategy{
		{
			Name:     "accuracy_optimization",
			Weight:   1.2,
			Category: entities.FeedbackCategoryAccuracy,
			build:    buildAccuracyChanges,
		},
		{
			Name:     "clarity_improvement",
			Weight:   1.0,
			Category: entities.FeedbackCategoryClarity,
			build:    buildClarityChanges,
		},
		{
			Name:     "actionability_enhancement",
			Weight:   0.8,
			Category: entities.FeedbackCategoryActionability,
			build:    buildActionabilityChanges,
		},
	}
}

func buildAccuracyChanges(relevant []*entities.InsightFeedback, stats *entities.FeedbackStats) []entities.SuggestedChange {
	changes := []entities.SuggestedChange{
		{
			Type:       entities.ChangeTypeModify,
			Target:     "data_grounding",
			Suggestion: "Require the insight to cite the exact metric values it was generated from",
			Reason:     fmt.Sprintf("%d low accuracy ratings suggest the text drifts from the underlying data", len(relevant)),
			Impact:     0.8,
		},
		{
			Type:       entities.ChangeTypeAdd,
			Target:     "constraints",
			Suggestion: "Add an instruction to avoid claims not directly supported by the provided metrics",
			Reason:     "Unsupported claims are the most common accuracy complaint",
			Impact:     0.6,
		},
	}
	if hasTag(relevant, "not-personalized") {
		changes = append(changes, entities.SuggestedChange{
			Type:       entities.ChangeTypeAdd,
			Target:     "personalization",
			Suggestion: "Reference the user's recent trend for the category, not population averages",
			Reason:     "Feedback tagged not-personalized",
			Impact:     0.5,
		})
	}
	return changes
}

func buildClarityChanges(relevant []*entities.InsightFeedback, stats *entities.FeedbackStats) []entities.SuggestedChange {
	changes := []entities.SuggestedChange{
		{
			Type:       entities.ChangeTypeModify,
			Target:     "sentence_length",
			Suggestion: "Cap the insight at two short sentences",
			Reason:     fmt.Sprintf("%d low clarity ratings", len(relevant)),
			Impact:     0.7,
		},
	}
	if hasTag(relevant, "too-technical") {
		changes = append(changes, entities.SuggestedChange{
			Type:       entities.ChangeTypeRemove,
			Target:     "terminology",
			Suggestion: "Remove clinical terminology in favor of everyday words",
			Reason:     "Feedback tagged too-technical",
			Impact:     0.6,
		})
	}
	if hasTag(relevant, "too-long") {
		changes = append(changes, entities.SuggestedChange{
			Type:       entities.ChangeTypeModify,
			Target:     "length_budget",
			Suggestion: "Reduce the output token budget",
			Reason:     "Feedback tagged too-long",
			Impact:     0.4,
		})
	}
	return changes
}

func buildActionabilityChanges(relevant []*entities.InsightFeedback, stats *entities.FeedbackStats) []entities.SuggestedChange {
	changes := []entities.SuggestedChange{
		{
			Type:       entities.ChangeTypeAdd,
			Target:     "call_to_action",
			Suggestion: "End every insight with one small, concrete next step",
			Reason:     fmt.Sprintf("%d low actionability ratings", len(relevant)),
			Impact:     0.7,
		},
	}
	if stats.PerformanceMetrics.ActionClickRate > 0 && stats.PerformanceMetrics.ActionClickRate < 0.2 {
		changes = append(changes, entities.SuggestedChange{
			Type:       entities.ChangeTypeModify,
			Target:     "action_framing",
			Suggestion: "Phrase the suggested action as a same-day task",
			Reason:     fmt.Sprintf("Action click rate is %.0f%%", stats.PerformanceMetrics.ActionClickRate*100),
			Impact:     0.5,
		})
	}
	return changes
}

func hasTag(records []*entities.InsightFeedback, tag string) bool {
	for _, record := range records {
		for _, t := range record.Annotations.Tags {
			if t == tag {
				return true
			}
		}
	}
	return false
}
