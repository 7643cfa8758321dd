package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
)

func newArchiveFixture(t *testing.T) (*FeedbackArchiveAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewFeedbackArchiveAdapter(sqlx.NewDb(db, "postgres")).(*FeedbackArchiveAdapter)
	return adapter, mock
}

func archivedFeedback() *entities.InsightFeedback {
	return &entities.InsightFeedback{
		ID:        "fb-1",
		InsightID: "insight-1",
		Insight: entities.HealthInsight{
			ID:       "insight-1",
			Category: entities.InsightCategorySleep,
			Message:  "Solid sleep streak.",
		},
		Category: entities.FeedbackCategoryClarity,
		Score:    4,
		Source:   entities.FeedbackSourceExplicit,
		Comment:  "clear and helpful",
		Metadata: entities.FeedbackMetadata{
			Timestamp: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
			SessionID: "session-1",
			UserID:    "user-1",
		},
	}
}

func TestArchiveInsertsRow(t *testing.T) {
	adapter, mock := newArchiveFixture(t)

	mock.ExpectExec(`INSERT INTO "insight_feedback"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Archive(context.Background(), archivedFeedback())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveWrapsDatabaseError(t *testing.T) {
	adapter, mock := newArchiveFixture(t)

	mock.ExpectExec(`INSERT INTO "insight_feedback"`).
		WillReturnError(assert.AnError)

	err := adapter.Archive(context.Background(), archivedFeedback())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestArchiveNilFeedback(t *testing.T) {
	adapter, _ := newArchiveFixture(t)

	err := adapter.Archive(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
