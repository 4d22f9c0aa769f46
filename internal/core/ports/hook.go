// Package ports defines the core interfaces for the gateway.
// This file contains the hook and engine contracts around chain execution.
package ports

import (
	"context"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// Phase identifies which hook lifecycle call is running.
type Phase string

const (
	// PhasePre runs before the engine executes the chain.
	PhasePre Phase = "pre"
	// PhasePost runs after the engine has produced a result.
	PhasePost Phase = "post"
)

// Hook observes or mutates a chain before it runs and its result afterwards.
type Hook interface {
	// Name returns the unique identifier for this hook.
	Name() string

	// PreExecute is invoked exactly once before the chain runs. It may
	// replace the chain's operations in place. An error aborts execution.
	PreExecute(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error

	// PostExecute is invoked exactly once after execution. Its return value
	// becomes the chain's result.
	PostExecute(ctx context.Context, result any, chain *domain.Chain, principal *domain.Principal) (any, error)
}

// Engine runs a chain against a storage back-end.
type Engine interface {
	Execute(ctx context.Context, chain *domain.Chain, principal *domain.Principal) (any, error)
}

// HookExecutor orchestrates hook dispatch around an engine.
type HookExecutor interface {
	// RunPre executes every hook's PreExecute in order.
	RunPre(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error

	// RunPost executes every hook's PostExecute in order, threading the result.
	RunPost(ctx context.Context, result any, chain *domain.Chain, principal *domain.Principal) (any, error)
}
