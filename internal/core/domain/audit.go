package domain

import "time"

// RewriteRecord is the audit trail entry written after a chain has passed the
// rewriting hooks.
type RewriteRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ChainType  string    `json:"chain_type"`
	Operations []string  `json:"operations"`
	CreatedAt  time.Time `json:"created_at"`
}
