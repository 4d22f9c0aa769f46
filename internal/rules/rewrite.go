package rules

import (
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
)

// Rewriter computes the operation sequence of a chain with a rule set's
// operations injected. The zero value uses FlattenAndPreserve and shares
// injected instances.
type Rewriter struct {
	Mode        NestedChainMode
	CopyPerSite bool
}

// Rewrite returns a new sequence for chain with rs applied:
//
//	start, then for each operation: [nested rewrite], before[type], op, after[type], then end
//
// It reads a snapshot of chain and never mutates it; callers install the
// result with chain.Replace. A nil chain yields start followed by end.
// Type identifiers are matched exactly.
func (rw Rewriter) Rewrite(chain *domain.Chain, rs RuleSet) []domain.Operation {
	return rw.appendChain(make([]domain.Operation, 0, chain.Len()+len(rs.Start)+len(rs.End)), chain, rs)
}

func (rw Rewriter) appendChain(out []domain.Operation, chain *domain.Chain, rs RuleSet) []domain.Operation {
	out = rw.inject(out, rs.Start)
	for _, op := range chain.Snapshot() {
		if op == nil {
			out = append(out, op)
			continue
		}
		nested, isChain := op.(*domain.Chain)
		if isChain && nested == nil {
			out = append(out, op)
			continue
		}

		typeID := op.TypeID()
		if isChain && rw.Mode == FlattenOnly {
			out = rw.inject(out, rs.Before[typeID])
			out = rw.appendChain(out, nested, rs)
			out = rw.inject(out, rs.After[typeID])
			continue
		}
		if isChain {
			out = rw.appendChain(out, nested, rs)
		}
		out = rw.inject(out, rs.Before[typeID])
		out = append(out, op)
		out = rw.inject(out, rs.After[typeID])
	}
	return rw.inject(out, rs.End)
}

func (rw Rewriter) inject(out []domain.Operation, ops []domain.Operation) []domain.Operation {
	if !rw.CopyPerSite {
		return append(out, ops...)
	}
	for _, op := range ops {
		if c, ok := op.(domain.Cloner); ok {
			out = append(out, c.Clone())
			continue
		}
		out = append(out, op)
	}
	return out
}

// Rewrite applies rs to chain with the default Rewriter.
func Rewrite(chain *domain.Chain, rs RuleSet) []domain.Operation {
	return Rewriter{}.Rewrite(chain, rs)
}
