// Package storage re-exports the audit storage contract so store
// implementations and callers share one import.
package storage

import (
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

type (
	AuditStore    = ports.AuditStore
	ListOptions   = ports.ListOptions
	RewriteRecord = domain.RewriteRecord
)

// DefaultListLimit caps list queries that do not set a limit.
const DefaultListLimit = 100

// EffectiveLimit returns opts.Limit, or DefaultListLimit when unset.
func EffectiveLimit(opts ListOptions) int {
	if opts.Limit <= 0 {
		return DefaultListLimit
	}
	return opts.Limit
}
