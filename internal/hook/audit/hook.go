// Package audit provides a hook that records the shape of every chain that
// reaches it. Ordered after the rewriting hooks, it captures the operations
// the engine is about to run.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

// Name is the hook's identifier.
const Name = "audit"

// Hook persists a domain.RewriteRecord for each chain in PreExecute.
type Hook struct {
	name   string
	store  ports.AuditStore
	logger *slog.Logger
	now    func() time.Time
}

// New creates an audit hook writing to store.
func New(name string, store ports.AuditStore, logger *slog.Logger) (*Hook, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store required")
	}
	if name == "" {
		name = Name
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{
		name:   name,
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (h *Hook) Name() string {
	return h.name
}

// PreExecute records the chain. A store failure aborts execution.
func (h *Hook) PreExecute(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error {
	if chain == nil {
		return nil
	}
	rec := &domain.RewriteRecord{
		ID:         uuid.New().String(),
		ChainType:  chain.TypeID(),
		Operations: chain.TypeIDs(),
		CreatedAt:  h.now(),
	}
	if principal != nil {
		rec.UserID = principal.UserID
	}

	if err := h.store.SaveRewrite(ctx, rec); err != nil {
		return fmt.Errorf("save rewrite record: %w", err)
	}

	h.logger.DebugContext(ctx, "chain recorded",
		slog.String("record_id", rec.ID),
		slog.String("user_id", rec.UserID),
		slog.Int("operations", len(rec.Operations)),
	)
	return nil
}

// PostExecute returns result unchanged.
func (h *Hook) PostExecute(ctx context.Context, result any, chain *domain.Chain, principal *domain.Principal) (any, error) {
	return result, nil
}

var _ ports.Hook = (*Hook)(nil)
