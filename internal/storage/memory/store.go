package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tjfontaine/opchain-gateway/internal/storage"
)

// Store is an in-memory implementation of storage.AuditStore.
type Store struct {
	mu       sync.RWMutex
	records  []*storage.RewriteRecord
	byID     map[string]struct{}
	capacity int
}

// DefaultCapacity is the number of records kept when no capacity is given.
const DefaultCapacity = 10000

// New creates an in-memory store keeping at most capacity records, evicting
// the oldest first. Zero or less selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		byID:     make(map[string]struct{}),
		capacity: capacity,
	}
}

func (s *Store) SaveRewrite(ctx context.Context, rec *storage.RewriteRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("rewrite record id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ID]; exists {
		return fmt.Errorf("rewrite record %s already exists", rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	cp := *rec
	cp.Operations = slices.Clone(rec.Operations)
	s.records = append(s.records, &cp)
	s.byID[rec.ID] = struct{}{}

	if len(s.records) > s.capacity {
		evicted := s.records[0]
		delete(s.byID, evicted.ID)
		s.records = s.records[1:]
	}
	return nil
}

func (s *Store) ListRewrites(ctx context.Context, opts storage.ListOptions) ([]*storage.RewriteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first
	var result []*storage.RewriteRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if opts.UserID != "" && rec.UserID != opts.UserID {
			continue
		}
		cp := *rec
		cp.Operations = slices.Clone(rec.Operations)
		result = append(result, &cp)
	}

	// Simple pagination
	start := max(opts.Offset, 0)
	if start >= len(result) {
		return []*storage.RewriteRecord{}, nil
	}

	end := start + storage.EffectiveLimit(opts)
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Capacity returns the maximum number of records kept.
func (s *Store) Capacity() int {
	return s.capacity
}

func (s *Store) Close() error {
	return nil
}

var _ storage.AuditStore = (*Store)(nil)
