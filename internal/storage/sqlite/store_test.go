package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tjfontaine/opchain-gateway/internal/storage"
)

func TestSQLiteStore_SaveAndList(t *testing.T) {
	// Use in-memory SQLite with shared cache for testing
	store, err := New("file:memdb1?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := &storage.RewriteRecord{
			ID:         fmt.Sprintf("rec-%d", i),
			UserID:     "alice",
			ChainType:  "OperationChain",
			Operations: []string{"Authenticate", "Get"},
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
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

	got := records[0]
	if got.ID != "rec-2" {
		t.Errorf("first record = %s, want newest rec-2", got.ID)
	}
	if got.UserID != "alice" || got.ChainType != "OperationChain" {
		t.Errorf("record = %+v", got)
	}
	if len(got.Operations) != 2 || got.Operations[1] != "Get" {
		t.Errorf("Operations = %v, want [Authenticate Get]", got.Operations)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base.Add(2*time.Minute))
	}
}

func TestSQLiteStore_DuplicateAndMissingID(t *testing.T) {
	store, err := New("file:memdb2?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{}); err == nil {
		t.Error("expected error for missing id")
	}
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "dup", UserID: "u"}); err != nil {
		t.Fatalf("SaveRewrite() error = %v", err)
	}
	if err := store.SaveRewrite(ctx, &storage.RewriteRecord{ID: "dup", UserID: "u"}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestSQLiteStore_ListFiltersAndPaginates(t *testing.T) {
	store, err := New("file:memdb3?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	users := []string{"alice", "bob", "alice", "alice"}
	for i, u := range users {
		rec := &storage.RewriteRecord{
			ID:        fmt.Sprintf("rec-%d", i),
			UserID:    u,
			ChainType: "OperationChain",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.SaveRewrite(ctx, rec); err != nil {
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
		{"unknown user", storage.ListOptions{UserID: "carol"}, []string{}},
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

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.SaveRewrite(context.Background(), &storage.RewriteRecord{ID: "a", UserID: "u", ChainType: "OperationChain"}); err != nil {
		t.Fatalf("SaveRewrite() error = %v", err)
	}
	store.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file missing: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ListRewrites(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListRewrites() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("records after reopen = %+v", records)
	}
}
