package storage

import (
	"context"
	"testing"
)

func TestMemoryHistoryAppendAndList(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()

	id1, err := store.Append(ctx, EstimateRecord{Location: "Austin", NetIncomeCents: 410000})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := store.Append(ctx, EstimateRecord{Location: "Berlin", NetIncomeCents: 350000})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids should increase: %d then %d", id1, id2)
	}

	records, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest first
	if records[0].Location != "Berlin" || records[1].Location != "Austin" {
		t.Fatalf("unexpected order: %+v", records)
	}
	if records[0].CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestMemoryHistoryListLimit(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.Append(ctx, EstimateRecord{Location: "X"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestMemoryHistoryEmptyList(t *testing.T) {
	store := NewMemoryHistory()
	records, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
