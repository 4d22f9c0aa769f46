// Package addops provides the hook that injects configured operations into a
// chain before it runs: at the start, at the end, and immediately before or
// after operations of a given type. The rule set applied is chosen per
// principal from the registry's authorised rule sets, falling back to the
// default.
package addops

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/rules"
)

// Name is the hook's identifier.
const Name = "add_operations_to_chain"

// Hook is the add-operations-to-chain hook. Its registry is held behind an
// atomic pointer: rewrites load it once per call and reloads replace it as a
// whole, so a rewrite never observes a partially updated configuration.
type Hook struct {
	name      string
	registry  atomic.Pointer[rules.Registry]
	installed atomic.Bool
	logger    *slog.Logger
}

// New creates a hook serving reg. A nil reg behaves as an empty registry.
func New(reg *rules.Registry, logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hook{name: Name, logger: logger}
	h.Swap(reg)
	return h
}

// NewNamed creates a hook with a custom name, for pipelines that run more
// than one instance.
func NewNamed(name string, reg *rules.Registry, logger *slog.Logger) *Hook {
	h := New(reg, logger)
	if name != "" {
		h.name = name
	}
	return h
}

// Name returns the hook's name.
func (h *Hook) Name() string {
	return h.name
}

// PreExecute replaces the chain's operations with the rewritten sequence for
// principal. It never fails; a nil chain is left alone.
func (h *Hook) PreExecute(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error {
	if chain == nil {
		return nil
	}
	reg := h.registry.Load()
	before := chain.Len()
	sel := reg.Apply(chain, principal)

	if h.logger.Enabled(ctx, slog.LevelDebug) {
		h.logger.DebugContext(ctx, "chain rewritten",
			slog.String("hook", h.name),
			slog.String("rule_set", sel.Key()),
			slog.String("user_id", userID(principal)),
			slog.Int("operations_before", before),
			slog.Int("operations_after", chain.Len()),
		)
	}
	return nil
}

// PostExecute returns result unchanged.
func (h *Hook) PostExecute(ctx context.Context, result any, chain *domain.Chain, principal *domain.Principal) (any, error) {
	return result, nil
}

// Registry returns the registry currently in use.
func (h *Hook) Registry() *rules.Registry {
	return h.registry.Load()
}

// Swap installs reg as the hook's registry in a single atomic step.
func (h *Hook) Swap(reg *rules.Registry) {
	prev := h.registry.Swap(reg)
	h.announce(prev, reg)
}

// update applies fn to the current registry and installs the result,
// retrying when a concurrent update won the race.
func (h *Hook) update(fn func(*rules.Registry) *rules.Registry) {
	for {
		cur := h.registry.Load()
		next := fn(cur)
		if h.registry.CompareAndSwap(cur, next) {
			h.announce(cur, next)
			return
		}
	}
}

// announce logs an installed registry. The duplication warning is logged on
// the first install and whenever the mode switches back to
// flatten-and-preserve, not on every change.
func (h *Hook) announce(prev, reg *rules.Registry) {
	first := h.installed.CompareAndSwap(false, true)
	h.logger.Info("insertion rules installed", slog.String("hook", h.name), slog.Any("registry", reg))
	if reg.Mode() == rules.FlattenAndPreserve && (first || prev.Mode() != rules.FlattenAndPreserve) {
		h.logger.Warn("nested chains are inlined and also kept in place; engines that expand nested chains will run their operations twice",
			slog.String("hook", h.name),
			slog.String("nested_chain_mode", reg.Mode().String()),
			slog.String("alternative", rules.FlattenOnly.String()),
		)
	}
}

func userID(p *domain.Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID
}

// Ensure Hook implements the interface.
var _ ports.Hook = (*Hook)(nil)
