package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAdapterRoundTrip(t *testing.T) {
	adapter := NewMemoryAdapter(16, time.Minute)
	ctx := context.Background()

	if err := adapter.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := adapter.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("Get returned %q, want %q", got, "value")
	}

	exists, err := adapter.Exists(ctx, "key")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true, nil", exists, err)
	}

	if adapter.Len() != 1 {
		t.Fatalf("Len = %d, want 1", adapter.Len())
	}

	if err := adapter.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := adapter.Get(ctx, "key"); err == nil {
		t.Fatal("Get after Delete should return an error")
	}
}

func TestMemoryAdapterMissingKey(t *testing.T) {
	adapter := NewMemoryAdapter(16, time.Minute)

	if _, err := adapter.Get(context.Background(), "absent"); err == nil {
		t.Fatal("expected an error for a missing key")
	}
	exists, err := adapter.Exists(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if exists {
		t.Fatal("Exists should be false for a missing key")
	}
}

func TestMemoryAdapterEvictsOldest(t *testing.T) {
	adapter := NewMemoryAdapter(2, time.Minute)
	ctx := context.Background()

	adapter.Set(ctx, "a", []byte("1"), 0)
	adapter.Set(ctx, "b", []byte("2"), 0)
	adapter.Set(ctx, "c", []byte("3"), 0)

	if adapter.Len() != 2 {
		t.Fatalf("Len = %d, want 2", adapter.Len())
	}
	if _, err := adapter.Get(ctx, "a"); err == nil {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, err := adapter.Get(ctx, "c"); err != nil {
		t.Fatalf("newest entry missing: %v", err)
	}
}

func TestMemoryAdapterExpiry(t *testing.T) {
	adapter := NewMemoryAdapter(16, 20*time.Millisecond)
	ctx := context.Background()

	adapter.Set(ctx, "key", []byte("value"), 0)
	time.Sleep(50 * time.Millisecond)

	if _, err := adapter.Get(ctx, "key"); err == nil {
		t.Fatal("entry should have expired")
	}
}
