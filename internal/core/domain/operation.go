// Package domain defines the operation chain model shared by hooks, the
// pipeline, and the HTTP surface.
package domain

import "maps"

// ChainTypeID is the type identifier reported by a Chain that has no
// explicit Type.
const ChainTypeID = "OperationChain"

// Operation is a typed unit of work. The type identifier is stable and is the
// only key used to match insertion rules.
type Operation interface {
	TypeID() string
}

// Cloner is implemented by operations that can produce an independent copy
// of themselves. Rewriting only calls Clone when per-site copying is enabled.
type Cloner interface {
	Clone() Operation
}

// Op is a generic operation whose payload is opaque to the gateway. It is the
// shape used for operations declared in configuration and decoded from JSON.
type Op struct {
	Type    string         `json:"type" yaml:"type"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewOp creates an operation with the given type identifier and no payload.
func NewOp(typeID string) *Op {
	return &Op{Type: typeID}
}

// TypeID returns the operation's type identifier.
func (o *Op) TypeID() string {
	return o.Type
}

// Clone returns a copy of the operation with a deep-copied payload.
func (o *Op) Clone() Operation {
	return &Op{Type: o.Type, Payload: clonePayload(o.Payload)}
}

func clonePayload(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = clonePayload(vv)
		case []any:
			cp := make([]any, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// MaxChainDepth bounds how deeply chains may nest in a submitted document.
const MaxChainDepth = 64

// Chain is an ordered sequence of operations. A Chain is itself an Operation,
// so chains may nest. Callers must keep containment tree shaped: a chain that
// transitively contains itself is not supported.
type Chain struct {
	Type       string
	Operations []Operation
}

// NewChain creates a chain holding ops in order.
func NewChain(ops ...Operation) *Chain {
	return &Chain{Operations: ops}
}

// TypeID returns the chain's type identifier, ChainTypeID when unset.
func (c *Chain) TypeID() string {
	if c == nil || c.Type == "" {
		return ChainTypeID
	}
	return c.Type
}

// Snapshot returns a copy of the chain's current operation sequence. Mutating
// the chain afterwards does not affect the snapshot.
func (c *Chain) Snapshot() []Operation {
	if c == nil || len(c.Operations) == 0 {
		return nil
	}
	out := make([]Operation, len(c.Operations))
	copy(out, c.Operations)
	return out
}

// Replace installs ops as the chain's operation sequence. The chain value
// keeps its identity; only its contents change.
func (c *Chain) Replace(ops []Operation) {
	c.Operations = ops
}

// Len returns the number of top-level operations.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Operations)
}

// TypeIDs lists the type identifiers of the chain's top-level operations.
// Nil entries are reported as "".
func (c *Chain) TypeIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.Operations))
	for i, op := range c.Operations {
		if op != nil {
			ids[i] = op.TypeID()
		}
	}
	return ids
}

// Clone returns a chain with the same type and a shallow copy of the
// operation sequence. Nested operations are shared, not copied.
func (c *Chain) Clone() Operation {
	return &Chain{Type: c.Type, Operations: c.Snapshot()}
}

// Payload returns a copy of an operation's payload when it carries one.
func Payload(op Operation) map[string]any {
	if o, ok := op.(*Op); ok && o.Payload != nil {
		return maps.Clone(o.Payload)
	}
	return nil
}
