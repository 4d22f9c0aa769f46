package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/hook/addops"
	"github.com/tjfontaine/opchain-gateway/internal/hook/audit"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
	"github.com/tjfontaine/opchain-gateway/internal/rules"
)

// NewExecutorFromConfig creates a hook executor from app configuration.
// Returns nil if no hooks are configured. Audit hooks write to store.
func NewExecutorFromConfig(hooks []config.HookConfig, store ports.AuditStore, logger *slog.Logger) (*Executor, error) {
	if len(hooks) == 0 {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	configs := make([]HookConfig, 0, len(hooks))
	seen := make(map[string]struct{}, len(hooks))

	for _, hookCfg := range hooks {
		name := HookName(hookCfg)
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("hook %s: duplicate name", name)
		}
		seen[name] = struct{}{}

		hook, err := newHookFromConfig(name, hookCfg, store, logger)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", name, err)
		}

		configs = append(configs, HookConfig{
			Name:  name,
			Order: hookCfg.Order,
			Hook:  hook,
		})
	}

	return NewExecutor(ExecutorConfig{Hooks: configs}), nil
}

// HookName returns the configured hook name, defaulting to its type.
func HookName(cfg config.HookConfig) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return cfg.Type
}

func newHookFromConfig(name string, cfg config.HookConfig, store ports.AuditStore, logger *slog.Logger) (ports.Hook, error) {
	hookLogger := logger.With(slog.String("hook", name))

	switch cfg.Type {
	case config.HookTypeAddOperations:
		reg, err := rules.FromConfig(cfg.AddOperations)
		if err != nil {
			return nil, err
		}
		return addops.NewNamed(name, reg, hookLogger), nil
	case config.HookTypeAudit:
		return audit.New(name, store, hookLogger)
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unknown type %q (must be %q or %q)", cfg.Type, config.HookTypeAddOperations, config.HookTypeAudit)
	}
}

// RegistriesFromConfig builds the rule registries for hooks when they
// configure the same hooks as exec: same names and types, in the same run
// order. The result is keyed by hook name and holds only the
// add_operations_to_chain hooks. same is false when the lineup differs, in
// which case a new executor has to be built. No hooks are constructed.
func RegistriesFromConfig(exec *Executor, hooks []config.HookConfig) (regs map[string]*rules.Registry, same bool, err error) {
	if exec == nil || len(hooks) != len(exec.hooks) {
		return nil, false, nil
	}

	ordered := make([]config.HookConfig, len(hooks))
	copy(ordered, hooks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	for i, hookCfg := range ordered {
		if exec.hooks[i].Name() != HookName(hookCfg) || hookType(exec.hooks[i]) != hookCfg.Type {
			return nil, false, nil
		}
	}

	regs = make(map[string]*rules.Registry)
	for _, hookCfg := range ordered {
		if hookCfg.Type != config.HookTypeAddOperations {
			continue
		}
		name := HookName(hookCfg)
		reg, err := rules.FromConfig(hookCfg.AddOperations)
		if err != nil {
			return nil, false, fmt.Errorf("hook %s: %w", name, err)
		}
		regs[name] = reg
	}
	return regs, true, nil
}

func hookType(h ports.Hook) string {
	switch h.(type) {
	case *addops.Hook:
		return config.HookTypeAddOperations
	case *audit.Hook:
		return config.HookTypeAudit
	default:
		return ""
	}
}
