package rules

import (
	"log/slog"
	"slices"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// Registry holds the default rule set and the authorised rule sets in
// priority order. A Registry is immutable once built: the With* methods
// return modified copies, so a registry can be shared by concurrent rewrites
// and replaced wholesale on reload. A nil *Registry is an empty registry.
type Registry struct {
	defaults    RuleSet
	authorised  []AuthorisedRuleSet
	mode        NestedChainMode
	copyPerSite bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithNestedChainMode sets how nested chains are rewritten.
func WithNestedChainMode(mode NestedChainMode) Option {
	return func(r *Registry) {
		r.mode = mode
	}
}

// WithCopyPerSite clones injected operations at each insertion site.
func WithCopyPerSite(enabled bool) Option {
	return func(r *Registry) {
		r.copyPerSite = enabled
	}
}

// NewRegistry builds a registry. The order of authorised is the selection
// priority; a repeated auth keeps its first position and its last rules.
func NewRegistry(defaults RuleSet, authorised []AuthorisedRuleSet, opts ...Option) *Registry {
	r := &Registry{
		defaults:   defaults.clone(),
		authorised: ordered(authorised),
		mode:       DefaultNestedChainMode,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Defaults returns the default rule set.
func (r *Registry) Defaults() RuleSet {
	if r == nil {
		return RuleSet{}
	}
	return r.defaults.clone()
}

// Authorised returns the authorised rule sets in priority order.
func (r *Registry) Authorised() []AuthorisedRuleSet {
	if r == nil {
		return nil
	}
	out := make([]AuthorisedRuleSet, len(r.authorised))
	for i, a := range r.authorised {
		out[i] = AuthorisedRuleSet{Auth: a.Auth, Rules: a.Rules.clone()}
	}
	return out
}

// Mode returns the nested chain mode.
func (r *Registry) Mode() NestedChainMode {
	if r == nil {
		return DefaultNestedChainMode
	}
	return r.mode
}

// CopyPerSite reports whether injected operations are cloned per site.
func (r *Registry) CopyPerSite() bool {
	return r != nil && r.copyPerSite
}

// Rewriter returns a rewriter configured with the registry's options.
func (r *Registry) Rewriter() Rewriter {
	return Rewriter{Mode: r.Mode(), CopyPerSite: r.CopyPerSite()}
}

// Select picks the rule set for principal: the first authorised entry whose
// auth the principal holds, otherwise the default.
func (r *Registry) Select(principal *domain.Principal) Selection {
	if r == nil {
		return Selection{Default: true}
	}
	if len(r.authorised) > 0 && principal.HasOpAuths() {
		for _, a := range r.authorised {
			if principal.HasOpAuth(a.Auth) {
				return Selection{Rules: a.Rules, Auth: a.Auth}
			}
		}
	}
	return Selection{Rules: r.defaults, Default: true}
}

// Apply selects the rule set for principal, rewrites chain with it, and
// installs the result in chain. A nil chain is left alone.
func (r *Registry) Apply(chain *domain.Chain, principal *domain.Principal) Selection {
	sel := r.Select(principal)
	if chain == nil {
		return sel
	}
	chain.Replace(r.Rewriter().Rewrite(chain, sel.Rules))
	return sel
}

func (r *Registry) clone() *Registry {
	if r == nil {
		return &Registry{mode: DefaultNestedChainMode}
	}
	return &Registry{
		defaults:    r.defaults.clone(),
		authorised:  r.Authorised(),
		mode:        r.mode,
		copyPerSite: r.copyPerSite,
	}
}

// WithDefaults returns a copy with the default rule set replaced.
func (r *Registry) WithDefaults(rs RuleSet) *Registry {
	next := r.clone()
	next.defaults = rs.clone()
	return next
}

// WithStart returns a copy with the default start operations replaced.
func (r *Registry) WithStart(ops []domain.Operation) *Registry {
	next := r.clone()
	next.defaults.Start = slices.Clone(ops)
	return next
}

// WithEnd returns a copy with the default end operations replaced.
func (r *Registry) WithEnd(ops []domain.Operation) *Registry {
	next := r.clone()
	next.defaults.End = slices.Clone(ops)
	return next
}

// WithBefore returns a copy with the default before rules replaced.
func (r *Registry) WithBefore(before map[string][]domain.Operation) *Registry {
	next := r.clone()
	next.defaults.Before = cloneTypeMap(before)
	return next
}

// WithAfter returns a copy with the default after rules replaced.
func (r *Registry) WithAfter(after map[string][]domain.Operation) *Registry {
	next := r.clone()
	next.defaults.After = cloneTypeMap(after)
	return next
}

// WithAuthorised returns a copy whose authorised rule sets are exactly
// authorised. Previous entries are discarded, never merged.
func (r *Registry) WithAuthorised(authorised []AuthorisedRuleSet) *Registry {
	next := r.clone()
	next.authorised = ordered(authorised)
	return next
}

// LogValue summarises the registry for structured logs.
func (r *Registry) LogValue() slog.Value {
	if r == nil {
		return slog.GroupValue(slog.Bool("empty", true))
	}
	auths := make([]string, len(r.authorised))
	for i, a := range r.authorised {
		auths[i] = a.Auth
	}
	return slog.GroupValue(
		slog.String("nested_chain_mode", r.mode.String()),
		slog.Bool("copy_per_site", r.copyPerSite),
		slog.Int("default_start", len(r.defaults.Start)),
		slog.Int("default_end", len(r.defaults.End)),
		slog.Any("default_before", typeKeys(r.defaults.Before)),
		slog.Any("default_after", typeKeys(r.defaults.After)),
		slog.Any("authorised", auths),
	)
}
