package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/repositories"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
	"github.com/vitalloop/insight-engine/pkg/retry"
)

const topTagLimit = 5

// FeedbackService owns the feedback lifecycle: validated appends, index
// lookups, additive annotation merges, on-demand statistics, and
// best-effort enrichment plus archival after each append.
type FeedbackService struct {
	repo    repositories.FeedbackRepository
	archive repositories.FeedbackArchive
}

// NewFeedbackService creates a new feedback service. archive may be nil.
func NewFeedbackService(repo repositories.FeedbackRepository, archive repositories.FeedbackArchive) *FeedbackService {
	return &FeedbackService{repo: repo, archive: archive}
}

// AddFeedback validates and stores a feedback record. The id and timestamp
// are always assigned server-side. Enrichment and archival run in the
// background after the insert; a caller that reads immediately may observe
// un-enriched annotations.
func (s *FeedbackService) AddFeedback(ctx context.Context, feedback *entities.InsightFeedback) error {
	if feedback == nil {
		return apperrors.NewValidationError("feedback payload is required")
	}
	if feedback.InsightID == "" {
		return apperrors.NewValidationError("insight id is required")
	}
	if !entities.ValidFeedbackCategory(feedback.Category) {
		return apperrors.NewValidationError(fmt.Sprintf("unknown feedback category: %q", feedback.Category))
	}
	if feedback.Score < 1 || feedback.Score > 5 {
		return apperrors.NewValidationError("score must be between 1 and 5")
	}
	if feedback.Source != entities.FeedbackSourceExplicit && feedback.Source != entities.FeedbackSourceImplicit {
		feedback.Source = entities.FeedbackSourceExplicit
	}

	feedback.ID = uuid.New().String()
	feedback.Metadata.Timestamp = time.Now().UTC()

	if err := s.repo.Insert(ctx, feedback); err != nil {
		return err
	}

	id := feedback.ID
	go func() {
		// Fresh context: the request context may already be cancelled.
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.EnrichFeedback(bgCtx, id); err != nil {
			log.Warn().Err(err).Str("feedback_id", id).Msg("feedback enrichment failed")
		}
		s.archiveFeedback(bgCtx, id)
	}()

	return nil
}

// EnrichFeedback fills missing annotations for one record: sentiment and
// tags from the comment, and default content-quality metrics. It is safe to
// call repeatedly; present values are never recomputed.
func (s *FeedbackService) EnrichFeedback(ctx context.Context, feedbackID string) error {
	record, err := s.repo.Get(ctx, feedbackID)
	if err != nil {
		return err
	}

	enriched := enrichAnnotations(record)
	if enriched == nil {
		return nil
	}
	return s.UpdateAnnotations(ctx, feedbackID, enriched)
}

func (s *FeedbackService) archiveFeedback(ctx context.Context, feedbackID string) {
	if s.archive == nil {
		return
	}

	record, err := s.repo.Get(ctx, feedbackID)
	if err != nil {
		log.Warn().Err(err).Str("feedback_id", feedbackID).Msg("skipping archive of missing feedback")
		return
	}

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 3
	err = retry.Do(ctx, cfg, func() error {
		return s.archive.Archive(ctx, record)
	})
	if err != nil {
		log.Warn().Err(err).Str("feedback_id", feedbackID).Msg("feedback archive write failed")
	}
}

// GetInsightFeedback returns all feedback for an insight, oldest first.
func (s *FeedbackService) GetInsightFeedback(ctx context.Context, insightID string) ([]*entities.InsightFeedback, error) {
	return s.repo.ListByInsight(ctx, insightID)
}

// GetUserFeedbackHistory returns all feedback a user has submitted.
func (s *FeedbackService) GetUserFeedbackHistory(ctx context.Context, userID string) ([]*entities.InsightFeedback, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateAnnotations merges partial annotations into an existing record.
// The merge is additive: new tags are appended (deduplicated), existing
// fields survive unless explicitly overridden.
func (s *FeedbackService) UpdateAnnotations(ctx context.Context, feedbackID string, partial *entities.FeedbackAnnotations) error {
	if partial == nil {
		return apperrors.NewValidationError("annotations payload is required")
	}

	record, err := s.repo.Get(ctx, feedbackID)
	if err != nil {
		return err
	}

	record.Annotations.Tags = mergeTags(record.Annotations.Tags, partial.Tags)
	if partial.SentimentScore != nil {
		score := *partial.SentimentScore
		record.Annotations.SentimentScore = &score
	}
	if partial.ContentQualityMetrics != nil {
		metrics := *partial.ContentQualityMetrics
		record.Annotations.ContentQualityMetrics = &metrics
	}

	return s.repo.Update(ctx, record)
}

// GetFeedbackStats computes the aggregate over all feedback for one
// insight. Zero feedback yields a zeroed stats object, never an error.
func (s *FeedbackService) GetFeedbackStats(ctx context.Context, insightID string) (*entities.FeedbackStats, error) {
	records, err := s.repo.ListByInsight(ctx, insightID)
	if err != nil {
		return nil, err
	}

	stats := &entities.FeedbackStats{
		InsightID:         insightID,
		ScoreDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		CategoryBreakdown: make(map[entities.FeedbackCategory]int, len(entities.FeedbackCategories)),
		TopTags:           []entities.TagCount{},
	}
	for _, category := range entities.FeedbackCategories {
		stats.CategoryBreakdown[category] = 0
	}

	if len(records) == 0 {
		return stats, nil
	}

	var (
		scoreSum      int
		sentimentSum  float64
		sentimentN    int
		viewTimeSum   float64
		interactionN  int
		actionClicks  int
		expansions    int
		shares        int
		tagFrequency  = make(map[string]int)
		firstSeenRank = make(map[string]int)
	)

	for _, record := range records {
		scoreSum += record.Score
		stats.ScoreDistribution[record.Score]++
		stats.CategoryBreakdown[record.Category]++

		if record.Annotations.SentimentScore != nil {
			sentimentSum += *record.Annotations.SentimentScore
			sentimentN++
		}
		for _, tag := range record.Annotations.Tags {
			if _, seen := firstSeenRank[tag]; !seen {
				firstSeenRank[tag] = len(firstSeenRank)
			}
			tagFrequency[tag]++
		}

		if ic := record.Metadata.InteractionContext; ic != nil {
			interactionN++
			viewTimeSum += ic.ViewTimeMs
			if ic.ClickedAction {
				actionClicks++
			}
			if ic.Expanded {
				expansions++
			}
			if ic.Shared {
				shares++
			}
		}
	}

	stats.TotalFeedbackCount = len(records)
	stats.AverageScore = float64(scoreSum) / float64(len(records))
	if sentimentN > 0 {
		stats.AverageSentiment = sentimentSum / float64(sentimentN)
	}
	if interactionN > 0 {
		n := float64(interactionN)
		stats.PerformanceMetrics = entities.FeedbackPerformanceMetrics{
			AverageViewTimeMs: viewTimeSum / n,
			ActionClickRate:   float64(actionClicks) / n,
			ExpansionRate:     float64(expansions) / n,
			ShareRate:         float64(shares) / n,
		}
	}
	stats.TopTags = topTags(tagFrequency, firstSeenRank, topTagLimit)

	return stats, nil
}

func mergeTags(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	merged := append([]string(nil), existing...)
	for _, tag := range existing {
		seen[tag] = struct{}{}
	}
	for _, tag := range incoming {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}

func topTags(frequency map[string]int, firstSeen map[string]int, limit int) []entities.TagCount {
	tags := make([]entities.TagCount, 0, len(frequency))
	for tag, count := range frequency {
		tags = append(tags, entities.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return firstSeen[tags[i].Tag] < firstSeen[tags[j].Tag]
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
