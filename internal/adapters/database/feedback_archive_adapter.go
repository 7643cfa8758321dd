package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/repositories"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
)

// FeedbackArchiveAdapter persists feedback records to Postgres for offline
// analysis. The in-memory store stays the source of truth; archive rows are
// append-only and never read back by this service.
type FeedbackArchiveAdapter struct {
	db      *sqlx.DB
	builder *goqu.Database
}

// NewFeedbackArchiveAdapter creates a new archive adapter.
func NewFeedbackArchiveAdapter(db *sqlx.DB) repositories.FeedbackArchive {
	return &FeedbackArchiveAdapter{
		db:      db,
		builder: goqu.New("postgres", db.DB),
	}
}

// Archive inserts one feedback record.
func (a *FeedbackArchiveAdapter) Archive(ctx context.Context, feedback *entities.InsightFeedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	insightJSON, err := json.Marshal(feedback.Insight)
	if err != nil {
		return apperrors.NewInternalError("failed to encode insight snapshot", err)
	}
	annotationsJSON, err := json.Marshal(feedback.Annotations)
	if err != nil {
		return apperrors.NewInternalError("failed to encode annotations", err)
	}

	var interactionJSON []byte
	if feedback.Metadata.InteractionContext != nil {
		interactionJSON, err = json.Marshal(feedback.Metadata.InteractionContext)
		if err != nil {
			return apperrors.NewInternalError("failed to encode interaction context", err)
		}
	}

	record := goqu.Record{
		"id":          feedback.ID,
		"insight_id":  feedback.InsightID,
		"insight":     string(insightJSON),
		"category":    string(feedback.Category),
		"score":       feedback.Score,
		"source":      string(feedback.Source),
		"comment":     sql.NullString{String: feedback.Comment, Valid: feedback.Comment != ""},
		"session_id":  sql.NullString{String: feedback.Metadata.SessionID, Valid: feedback.Metadata.SessionID != ""},
		"user_id":     sql.NullString{String: feedback.Metadata.UserID, Valid: feedback.Metadata.UserID != ""},
		"interaction": sql.NullString{String: string(interactionJSON), Valid: interactionJSON != nil},
		"annotations": string(annotationsJSON),
		"created_at":  feedback.Metadata.Timestamp,
	}

	query, args, err := a.builder.Insert("insight_feedback").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build archive insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewExternalError("failed to archive feedback", err)
	}

	return nil
}
