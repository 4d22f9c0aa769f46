package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/tjfontaine/opchain-gateway/internal/storage"
)

func TestMemoryStore_SaveAndList(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &storage.RewriteRecord{
			ID:         fmt.Sprintf("rec-%d", i),
			UserID:     "alice",
			ChainType:  "OperationChain",
			Operations: []string{"Get", "Limit"},
		}
		if err := store.SaveRewrite(ctx, rec); err != nil {
			t.Fatalf("SaveRewrite() error = %v", err)
		}
	}

	records, err := store.ListRewrites(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListRewrites() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListRewrites() count = %d, want 3", len(records))
	}
	if records[0].ID != "rec-2" {
		t.Errorf("first record = %s, want newest rec-2", records[0].ID)
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestMemoryStore_RejectsDuplicatesAndMissingID(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{}); err == nil {
		t.Error("expected error for missing id")
	}
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "a"}); err != nil {
		t.Fatalf("SaveRewrite() error = %v", err)
	}
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "a"}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestMemoryStore_ListFiltersAndPaginates(t *testing.T) {
	store := New(0)
	ctx := context.Background()

	users := []string{"alice", "bob", "alice", "alice"}
	for i, u := range users {
		if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: fmt.Sprintf("rec-%d", i), UserID: u}); err != nil {
			t.Fatalf("SaveRewrite() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		opts    storage.ListOptions
		wantIDs []string
	}{
		{"filter by user", storage.ListOptions{UserID: "alice"}, []string{"rec-3", "rec-2", "rec-0"}},
		{"limit", storage.ListOptions{Limit: 2}, []string{"rec-3", "rec-2"}},
		{"offset", storage.ListOptions{Offset: 3}, []string{"rec-0"}},
		{"offset past end", storage.ListOptions{Offset: 10}, []string{}},
		{"negative offset starts at newest", storage.ListOptions{Offset: -2, Limit: 1}, []string{"rec-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.ListRewrites(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListRewrites() error = %v", err)
			}
			if len(records) != len(tt.wantIDs) {
				t.Fatalf("count = %d, want %d", len(records), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if records[i].ID != id {
					t.Errorf("records[%d] = %s, want %s", i, records[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryStore_Capacity(t *testing.T) {
	store := New(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: fmt.Sprintf("rec-%d", i)}); err != nil {
			t.Fatalf("SaveRewrite() error = %v", err)
		}
	}

	records, _ := store.ListRewrites(ctx, storage.ListOptions{})
	if len(records) != 2 || records[1].ID != "rec-1" {
		t.Fatalf("expected oldest record evicted, got %d records", len(records))
	}

	// The evicted id can be reused.
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "rec-0"}); err != nil {
		t.Errorf("SaveRewrite() after eviction error = %v", err)
	}
}

func TestMemoryStore_DefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if got := New(capacity).Capacity(); got != DefaultCapacity {
			t.Errorf("New(%d).Capacity() = %d, want %d", capacity, got, DefaultCapacity)
		}
	}
	if got := New(5).Capacity(); got != 5 {
		t.Errorf("New(5).Capacity() = %d, want 5", got)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := New(0)
	ctx := context.Background()
	ops := []string{"Get"}
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "a", Operations: ops}); err != nil {
		t.Fatalf("SaveRewrite() error = %v", err)
	}
	ops[0] = "Changed"

	records, _ := store.ListRewrites(ctx, storage.ListOptions{})
	records[0].Operations[0] = "Mutated"

	again, _ := store.ListRewrites(ctx, storage.ListOptions{})
	if again[0].Operations[0] != "Get" {
		t.Errorf("stored operations = %v, want [Get]", again[0].Operations)
	}
}
