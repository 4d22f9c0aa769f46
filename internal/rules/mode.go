package rules

import "fmt"

// NestedChainMode controls how a chain nested inside another chain is
// rewritten.
type NestedChainMode int

const (
	// FlattenAndPreserve inlines the rewritten nested chain and then keeps
	// the original nested chain in place. This is the default.
	FlattenAndPreserve NestedChainMode = iota
	// FlattenOnly replaces the nested chain with its rewritten contents.
	FlattenOnly
)

// DefaultNestedChainMode is used when no mode is configured.
const DefaultNestedChainMode = FlattenAndPreserve

func (m NestedChainMode) String() string {
	switch m {
	case FlattenAndPreserve:
		return "flatten-and-preserve"
	case FlattenOnly:
		return "flatten-only"
	default:
		return fmt.Sprintf("NestedChainMode(%d)", int(m))
	}
}

// ParseNestedChainMode parses a configured mode. The empty string selects
// DefaultNestedChainMode.
func ParseNestedChainMode(s string) (NestedChainMode, error) {
	switch s {
	case "":
		return DefaultNestedChainMode, nil
	case "flatten-and-preserve":
		return FlattenAndPreserve, nil
	case "flatten-only":
		return FlattenOnly, nil
	default:
		return 0, fmt.Errorf("invalid nested chain mode %q (must be 'flatten-and-preserve' or 'flatten-only')", s)
	}
}
