package addops

import (
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/rules"
)

// The setters below change one field of the default rule set, or the whole
// authorised list, by deriving a new registry and swapping it in. They are
// safe to call while chains are being rewritten.

// Start returns the default start operations.
func (h *Hook) Start() []domain.Operation {
	return h.Registry().Defaults().Start
}

// SetStart replaces the default start operations.
func (h *Hook) SetStart(ops []domain.Operation) {
	h.update(func(r *rules.Registry) *rules.Registry { return r.WithStart(ops) })
}

// End returns the default end operations.
func (h *Hook) End() []domain.Operation {
	return h.Registry().Defaults().End
}

// SetEnd replaces the default end operations.
func (h *Hook) SetEnd(ops []domain.Operation) {
	h.update(func(r *rules.Registry) *rules.Registry { return r.WithEnd(ops) })
}

// Before returns the default before rules keyed by type identifier.
func (h *Hook) Before() map[string][]domain.Operation {
	return h.Registry().Defaults().Before
}

// SetBefore replaces the default before rules.
func (h *Hook) SetBefore(before map[string][]domain.Operation) {
	h.update(func(r *rules.Registry) *rules.Registry { return r.WithBefore(before) })
}

// After returns the default after rules keyed by type identifier.
func (h *Hook) After() map[string][]domain.Operation {
	return h.Registry().Defaults().After
}

// SetAfter replaces the default after rules.
func (h *Hook) SetAfter(after map[string][]domain.Operation) {
	h.update(func(r *rules.Registry) *rules.Registry { return r.WithAfter(after) })
}

// AuthorisedOps returns the authorised rule sets in priority order.
func (h *Hook) AuthorisedOps() []rules.AuthorisedRuleSet {
	return h.Registry().Authorised()
}

// SetAuthorisedOps replaces the authorised rule sets. The previous entries
// are discarded; a nil slice clears them.
func (h *Hook) SetAuthorisedOps(authorised []rules.AuthorisedRuleSet) {
	h.update(func(r *rules.Registry) *rules.Registry { return r.WithAuthorised(authorised) })
}
