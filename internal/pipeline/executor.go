package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

const tracerName = "github.com/tjfontaine/opchain-gateway/internal/pipeline"

// Executor orchestrates hook execution around an engine.
// Hooks run sequentially in ascending Order for both phases.
type Executor struct {
	hooks  []ports.Hook
	tracer trace.Tracer
}

// ExecutorConfig configures an executor from hook configurations.
type ExecutorConfig struct {
	Hooks []HookConfig
}

// HookConfig is the configuration for a single hook.
type HookConfig struct {
	Name  string
	Order int
	Hook  ports.Hook
}

// NewExecutor creates an executor from configuration. Hooks with equal Order
// keep their configured relative position.
func NewExecutor(cfg ExecutorConfig) *Executor {
	hooks := make([]HookConfig, 0, len(cfg.Hooks))
	for _, h := range cfg.Hooks {
		if h.Hook != nil {
			hooks = append(hooks, h)
		}
	}

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Order < hooks[j].Order
	})

	e := &Executor{
		hooks:  make([]ports.Hook, len(hooks)),
		tracer: otel.Tracer(tracerName),
	}
	for i, h := range hooks {
		e.hooks[i] = h.Hook
	}

	return e
}

// Hooks returns the hooks in execution order.
func (e *Executor) Hooks() []ports.Hook {
	out := make([]ports.Hook, len(e.hooks))
	copy(out, e.hooks)
	return out
}

// Hook returns the hook registered under name.
func (e *Executor) Hook(name string) (ports.Hook, bool) {
	for _, h := range e.hooks {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// RunPre executes every hook's PreExecute in order. The first failure stops
// the run and is returned as a *HookError.
func (e *Executor) RunPre(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error {
	ctx, span := e.tracer.Start(ctx, "pipeline.pre",
		trace.WithAttributes(attribute.Int("pipeline.hooks", len(e.hooks))))
	defer span.End()

	for _, hook := range e.hooks {
		if err := hook.PreExecute(ctx, chain, principal); err != nil {
			hookErr := &HookError{HookName: hook.Name(), Phase: ports.PhasePre, Err: err}
			span.RecordError(hookErr)
			span.SetStatus(codes.Error, hookErr.Error())
			return hookErr
		}
	}

	span.SetAttributes(attribute.Int("chain.operations", chain.Len()))
	return nil
}

// RunPost executes every hook's PostExecute in order, feeding each hook the
// previous hook's result.
func (e *Executor) RunPost(ctx context.Context, result any, chain *domain.Chain, principal *domain.Principal) (any, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.post",
		trace.WithAttributes(attribute.Int("pipeline.hooks", len(e.hooks))))
	defer span.End()

	current := result
	for _, hook := range e.hooks {
		next, err := hook.PostExecute(ctx, current, chain, principal)
		if err != nil {
			hookErr := &HookError{HookName: hook.Name(), Phase: ports.PhasePost, Err: err}
			span.RecordError(hookErr)
			span.SetStatus(codes.Error, hookErr.Error())
			return nil, hookErr
		}
		current = next
	}

	return current, nil
}

// Run executes the pre hooks, the engine, and the post hooks.
func (e *Executor) Run(ctx context.Context, engine ports.Engine, chain *domain.Chain, principal *domain.Principal) (any, error) {
	if engine == nil {
		return nil, fmt.Errorf("pipeline: engine required")
	}

	if err := e.RunPre(ctx, chain, principal); err != nil {
		return nil, err
	}

	engineCtx, span := e.tracer.Start(ctx, "engine.execute")
	result, err := engine.Execute(engineCtx, chain, principal)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, fmt.Errorf("engine execute: %w", err)
	}
	span.End()

	return e.RunPost(ctx, result, chain, principal)
}

// HasHooks returns true if any hooks are configured.
func (e *Executor) HasHooks() bool {
	return len(e.hooks) > 0
}

// HookError is returned when a hook fails. Execution is aborted and not retried.
type HookError struct {
	HookName string
	Phase    ports.Phase
	Err      error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s failed in %s phase: %v", e.HookName, e.Phase, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// IsHookError returns true if err is or wraps a hook failure.
func IsHookError(err error) bool {
	var hookErr *HookError
	return errors.As(err, &hookErr)
}

// Ensure Executor implements the interface.
var _ ports.HookExecutor = (*Executor)(nil)
