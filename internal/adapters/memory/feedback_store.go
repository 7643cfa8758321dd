package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/repositories"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
)

// FeedbackStore is the in-process feedback repository. It owns the records
// and both lookup indices; state is intentionally non-durable across
// restarts. All reads hand out copies so callers can never mutate stored
// records behind the store's back.
type FeedbackStore struct {
	mu        sync.RWMutex
	records   map[string]*entities.InsightFeedback
	byInsight map[string][]string
	byUser    map[string][]string
}

// NewFeedbackStore creates an empty feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{
		records:   make(map[string]*entities.InsightFeedback),
		byInsight: make(map[string][]string),
		byUser:    make(map[string][]string),
	}
}

// Insert stores a new feedback record and updates both indices.
func (s *FeedbackStore) Insert(_ context.Context, feedback *entities.InsightFeedback) error {
	if feedback == nil || feedback.ID == "" {
		return apperrors.NewInternalError("feedback record requires an id", fmt.Errorf("missing id"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[feedback.ID]; exists {
		// Same generated id means the same logical insert; keep it idempotent.
		return nil
	}

	stored := copyFeedback(feedback)
	s.records[stored.ID] = stored
	s.byInsight[stored.InsightID] = append(s.byInsight[stored.InsightID], stored.ID)
	if stored.Metadata.UserID != "" {
		s.byUser[stored.Metadata.UserID] = append(s.byUser[stored.Metadata.UserID], stored.ID)
	}
	return nil
}

// Get returns one record by id.
func (s *FeedbackStore) Get(_ context.Context, id string) (*entities.InsightFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", id))
	}
	return copyFeedback(record), nil
}

// ListByInsight returns all feedback for an insight, oldest first.
func (s *FeedbackStore) ListByInsight(_ context.Context, insightID string) ([]*entities.InsightFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byInsight[insightID]), nil
}

// ListByUser returns all feedback submitted by a user, oldest first.
func (s *FeedbackStore) ListByUser(_ context.Context, userID string) ([]*entities.InsightFeedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byUser[userID]), nil
}

// Update replaces an existing record.
func (s *FeedbackStore) Update(_ context.Context, feedback *entities.InsightFeedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback record is nil", fmt.Errorf("nil feedback"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[feedback.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("feedback %s not found", feedback.ID))
	}
	s.records[feedback.ID] = copyFeedback(feedback)
	return nil
}

func (s *FeedbackStore) collect(ids []string) []*entities.InsightFeedback {
	result := make([]*entities.InsightFeedback, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.records[id]; ok {
			result = append(result, copyFeedback(record))
		}
	}
	return result
}

func copyFeedback(in *entities.InsightFeedback) *entities.InsightFeedback {
	out := *in

	if in.Insight.RelatedMetrics != nil {
		out.Insight.RelatedMetrics = append([]string(nil), in.Insight.RelatedMetrics...)
	}
	if in.Insight.Action != nil {
		action := *in.Insight.Action
		out.Insight.Action = &action
	}
	if in.Metadata.InteractionContext != nil {
		ic := *in.Metadata.InteractionContext
		out.Metadata.InteractionContext = &ic
	}
	if in.Annotations.Tags != nil {
		out.Annotations.Tags = append([]string(nil), in.Annotations.Tags...)
	}
	if in.Annotations.SentimentScore != nil {
		score := *in.Annotations.SentimentScore
		out.Annotations.SentimentScore = &score
	}
	if in.Annotations.ContentQualityMetrics != nil {
		metrics := *in.Annotations.ContentQualityMetrics
		out.Annotations.ContentQualityMetrics = &metrics
	}
	return &out
}

var _ repositories.FeedbackRepository = (*FeedbackStore)(nil)
