// Package pipeline runs the hooks configured around chain execution.
//
// # Lifecycle
//
// For every chain the executor calls each hook's PreExecute in ascending
// order, hands the (possibly rewritten) chain to the engine, then calls each
// hook's PostExecute in the same order, threading the result through:
//
//	RunPre(chain)  -> hook1.PreExecute, hook2.PreExecute, ...
//	engine.Execute(chain)
//	RunPost(result) -> hook1.PostExecute, hook2.PostExecute, ...
//
// A hook failure aborts execution with a *HookError. Failures are not
// retried.
//
// # Configuration
//
//	hooks:
//	  - name: add-ops
//	    type: add_operations_to_chain
//	    order: 1
//	    add_operations: { ... }
//	  - name: audit
//	    type: audit
//	    order: 2
//
// Hook names must be unique; the runtime matches hooks by name when a
// configuration reload swaps rule registries in place.
package pipeline
