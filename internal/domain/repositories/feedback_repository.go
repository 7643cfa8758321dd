package repositories

import (
	"context"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

// FeedbackRepository stores insight feedback and serves the two lookup
// indices. Implementations return defensive copies; callers never observe
// shared mutable state.
type FeedbackRepository interface {
	// Insert stores a new feedback record and updates both indices.
	Insert(ctx context.Context, feedback *entities.InsightFeedback) error

	// Get returns one record by id, or a NotFound error.
	Get(ctx context.Context, id string) (*entities.InsightFeedback, error)

	// ListByInsight returns all feedback for an insight id, oldest first.
	// Unknown ids yield an empty slice, not an error.
	ListByInsight(ctx context.Context, insightID string) ([]*entities.InsightFeedback, error)

	// ListByUser returns all feedback submitted by a user, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*entities.InsightFeedback, error)

	// Update replaces an existing record, or returns a NotFound error.
	Update(ctx context.Context, feedback *entities.InsightFeedback) error
}

// FeedbackArchive persists feedback records out-of-process for offline
// analysis. Writes are best-effort; the in-memory store stays the source of
// truth for reads.
type FeedbackArchive interface {
	Archive(ctx context.Context, feedback *entities.InsightFeedback) error
}
