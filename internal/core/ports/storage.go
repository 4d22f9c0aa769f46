package ports

import (
	"context"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// AuditStore persists rewrite records.
// Implementations: in-memory (default), SQLite.
type AuditStore interface {
	// SaveRewrite stores a record. The record's ID must be set.
	SaveRewrite(ctx context.Context, rec *domain.RewriteRecord) error

	// ListRewrites returns the most recent records first.
	ListRewrites(ctx context.Context, opts ListOptions) ([]*domain.RewriteRecord, error)

	// Close releases the store's resources.
	Close() error
}

// ListOptions contains options for listing records.
type ListOptions struct {
	UserID string
	Limit  int
	Offset int
}
