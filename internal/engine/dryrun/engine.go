// Package dryrun provides an engine that executes nothing. It walks the chain
// the way a storage engine would and reports the operations it would run, so
// the effect of rewriting hooks can be inspected without a back-end.
package dryrun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

// DefaultMaxDepth bounds chain nesting.
const DefaultMaxDepth = domain.MaxChainDepth

// Result is the outcome of a dry run.
type Result struct {
	// Executed lists the type ids of the leaf operations in execution order.
	// Nested chains are entered, not listed.
	Executed []string `json:"executed" yaml:"executed"`
	// Chains counts the chains entered, including the top-level one.
	Chains int `json:"chains" yaml:"chains"`
}

// Engine is a ports.Engine that records instead of executing.
type Engine struct {
	maxDepth int
	logger   *slog.Logger
}

// New creates a dry-run engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{maxDepth: DefaultMaxDepth, logger: logger}
}

// Execute walks chain depth-first and returns a *Result.
func (e *Engine) Execute(ctx context.Context, chain *domain.Chain, principal *domain.Principal) (any, error) {
	res := &Result{Executed: []string{}}
	if err := e.walk(ctx, chain, 0, res); err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "dry run complete",
		slog.Int("executed", len(res.Executed)),
		slog.Int("chains", res.Chains),
	)
	return res, nil
}

func (e *Engine) walk(ctx context.Context, chain *domain.Chain, depth int, res *Result) error {
	if chain == nil {
		return nil
	}
	if depth >= e.maxDepth {
		return fmt.Errorf("chain nesting exceeds %d levels", e.maxDepth)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res.Chains++
	for _, op := range chain.Snapshot() {
		switch v := op.(type) {
		case nil:
			continue
		case *domain.Chain:
			if err := e.walk(ctx, v, depth+1, res); err != nil {
				return err
			}
		default:
			res.Executed = append(res.Executed, op.TypeID())
		}
	}
	return nil
}

var _ ports.Engine = (*Engine)(nil)
