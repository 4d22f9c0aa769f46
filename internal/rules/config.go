package rules

import (
	"fmt"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
)

// FromConfig builds a registry from the add_operations hook configuration.
// Each configured operation becomes one *domain.Op instance, shared by every
// insertion point it is injected at unless copy_per_site is set.
func FromConfig(cfg config.AddOperationsConfig) (*Registry, error) {
	mode, err := ParseNestedChainMode(cfg.NestedChainMode)
	if err != nil {
		return nil, err
	}

	defaults, err := ruleSetFromConfig(cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}

	authorised := make([]AuthorisedRuleSet, 0, len(cfg.Authorised))
	for i, a := range cfg.Authorised {
		if a.Auth == "" {
			return nil, fmt.Errorf("authorised[%d]: auth is required", i)
		}
		rs, err := ruleSetFromConfig(a.Rules)
		if err != nil {
			return nil, fmt.Errorf("authorised %s: %w", a.Auth, err)
		}
		authorised = append(authorised, AuthorisedRuleSet{Auth: a.Auth, Rules: rs})
	}

	return NewRegistry(defaults, authorised,
		WithNestedChainMode(mode),
		WithCopyPerSite(cfg.CopyPerSite),
	), nil
}

func ruleSetFromConfig(cfg config.RuleSetConfig) (RuleSet, error) {
	var rs RuleSet
	var err error

	if rs.Start, err = opsFromConfig(cfg.Start); err != nil {
		return RuleSet{}, fmt.Errorf("start: %w", err)
	}
	if rs.End, err = opsFromConfig(cfg.End); err != nil {
		return RuleSet{}, fmt.Errorf("end: %w", err)
	}
	if rs.Before, err = typeRulesFromConfig(cfg.Before); err != nil {
		return RuleSet{}, fmt.Errorf("before: %w", err)
	}
	if rs.After, err = typeRulesFromConfig(cfg.After); err != nil {
		return RuleSet{}, fmt.Errorf("after: %w", err)
	}
	return rs, nil
}

// typeRulesFromConfig folds the list form into a map. Repeated types append
// their operations in file order.
func typeRulesFromConfig(cfgs []config.TypeRuleConfig) (map[string][]domain.Operation, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}
	out := make(map[string][]domain.Operation, len(cfgs))
	for i, c := range cfgs {
		if c.Type == "" {
			return nil, fmt.Errorf("rule %d: type is required", i)
		}
		ops, err := opsFromConfig(c.Operations)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", c.Type, err)
		}
		out[c.Type] = append(out[c.Type], ops...)
	}
	return out, nil
}

func opsFromConfig(cfgs []config.OperationConfig) ([]domain.Operation, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}
	ops := make([]domain.Operation, 0, len(cfgs))
	for i, c := range cfgs {
		if c.Type == "" {
			return nil, fmt.Errorf("operation %d: type is required", i)
		}
		ops = append(ops, &domain.Op{Type: c.Type, Payload: c.Payload})
	}
	return ops, nil
}
