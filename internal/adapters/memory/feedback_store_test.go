package memory

import (
	"context"
	"testing"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	apperrors "github.com/vitalloop/insight-engine/pkg/errors"
)

func record(id, insightID, userID string) *entities.InsightFeedback {
	return &entities.InsightFeedback{
		ID:        id,
		InsightID: insightID,
		Category:  entities.FeedbackCategoryUsefulness,
		Score:     3,
		Metadata:  entities.FeedbackMetadata{UserID: userID},
	}
}

func TestInsertAndGet(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	if err := store.Insert(ctx, record("fb-1", "insight-1", "user-1")); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	got, err := store.Get(ctx, "fb-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.InsightID != "insight-1" {
		t.Fatalf("InsightID = %q, want %q", got.InsightID, "insight-1")
	}
}

func TestInsertIdempotentPerID(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	first := record("fb-1", "insight-1", "user-1")
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := store.Insert(ctx, record("fb-1", "insight-1", "user-1")); err != nil {
		t.Fatalf("repeat Insert returned error: %v", err)
	}

	list, err := store.ListByInsight(ctx, "insight-1")
	if err != nil {
		t.Fatalf("ListByInsight returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d records, want 1", len(list))
	}
}

func TestGetMissing(t *testing.T) {
	store := NewFeedbackStore()

	_, err := store.Get(context.Background(), "absent")
	if err == nil {
		t.Fatal("expected an error for a missing record")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("error type = %v, want NOT_FOUND", err)
	}
}

func TestListOrderIsInsertionOrder(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	for _, id := range []string{"fb-1", "fb-2", "fb-3"} {
		if err := store.Insert(ctx, record(id, "insight-1", "user-1")); err != nil {
			t.Fatalf("Insert %s returned error: %v", id, err)
		}
	}

	list, err := store.ListByInsight(ctx, "insight-1")
	if err != nil {
		t.Fatalf("ListByInsight returned error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d records, want 3", len(list))
	}
	for i, want := range []string{"fb-1", "fb-2", "fb-3"} {
		if list[i].ID != want {
			t.Fatalf("list[%d].ID = %q, want %q", i, list[i].ID, want)
		}
	}

	byUser, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("got %d user records, want 3", len(byUser))
	}
}

func TestUpdateMissing(t *testing.T) {
	store := NewFeedbackStore()

	err := store.Update(context.Background(), record("absent", "insight-1", "user-1"))
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestStoredRecordsAreIsolated(t *testing.T) {
	store := NewFeedbackStore()
	ctx := context.Background()

	original := record("fb-1", "insight-1", "user-1")
	original.Annotations.Tags = []string{"helpful"}
	if err := store.Insert(ctx, original); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	original.Annotations.Tags[0] = "tampered"

	got, err := store.Get(ctx, "fb-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Annotations.Tags[0] != "helpful" {
		t.Fatalf("stored tag = %q, want %q", got.Annotations.Tags[0], "helpful")
	}
}
