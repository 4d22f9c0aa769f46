// Package rules holds the insertion rules applied to operation chains before
// they execute.
//
// A RuleSet names operations to inject at four kinds of insertion point: the
// start of a chain, its end, and immediately before or after every operation
// of a given type identifier. A Registry holds one default RuleSet and an
// ordered list of RuleSets keyed by operation auth; Select picks exactly one
// for a principal, the first authorised entry whose auth the principal holds,
// falling back to the default. Rule sets are never merged.
//
// # Nested chains
//
// A chain may contain other chains. The Rewriter always inlines the rewritten
// contents of a nested chain. What happens to the nested chain object itself
// depends on NestedChainMode:
//
//   - FlattenAndPreserve (the default) appends the original, un-rewritten
//     nested chain after its inlined contents, so the nested operations appear
//     twice. An engine that also expands nested chains will run them twice.
//   - FlattenOnly replaces the nested chain with its rewritten contents.
//
// The default keeps compatibility with existing deployments; set
// nested_chain_mode: flatten-only to expand nested chains exactly once.
//
// # Shared operations
//
// The operation instances configured in a RuleSet are injected by reference
// at every site they match, and across every chain rewritten with the
// registry. Treat them as immutable templates. WithCopyPerSite clones every
// injected operation implementing domain.Cloner instead.
//
// Chains must be trees. A chain that contains itself makes Rewrite recurse
// without bound.
package rules
