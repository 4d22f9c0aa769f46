// Package apikey provides API key-based authentication.
package apikey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
)

type user struct {
	id      string
	opAuths []string
}

// Provider implements ports.AuthProvider using API key authentication.
// Each configured key resolves to a user and the user's op auths.
type Provider struct {
	mu         sync.RWMutex
	users      map[string]*user // userID -> user
	keyHashMap map[string]string // keyHash -> userID
}

// NewProvider creates a new API key auth provider from cfg.
func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	p := &Provider{}
	if err := p.loadUsers(cfg); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return p, nil
}

// Authenticate validates an API key and returns a fresh principal for its user.
func (p *Provider) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("missing API key")
	}

	keyHash := HashAPIKey(token)

	p.mu.RLock()
	defer p.mu.RUnlock()

	userID, ok := p.keyHashMap[keyHash]
	if !ok {
		return nil, fmt.Errorf("invalid API key")
	}

	u, ok := p.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}

	return domain.NewPrincipal(u.id, u.opAuths...), nil
}

// Users returns the number of configured users.
func (p *Provider) Users() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}

// loadUsers builds the lookup tables from cfg and installs them only if the
// whole configuration is valid.
func (p *Provider) loadUsers(cfg *config.Config) error {
	users := make(map[string]*user, len(cfg.Users))
	keyHashMap := make(map[string]string)

	for i, userCfg := range cfg.Users {
		if userCfg.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		if _, dup := users[userCfg.ID]; dup {
			return fmt.Errorf("user %s: duplicate id", userCfg.ID)
		}

		users[userCfg.ID] = &user{
			id:      userCfg.ID,
			opAuths: append([]string(nil), userCfg.OpAuths...),
		}

		// Build key hash mappings
		for _, apiKey := range userCfg.APIKeys {
			keyHash := apiKey.KeyHash
			if keyHash == "" && apiKey.Key != "" {
				keyHash = HashAPIKey(apiKey.Key)
			}
			if keyHash == "" {
				continue
			}
			if owner, dup := keyHashMap[keyHash]; dup {
				return fmt.Errorf("user %s: API key already assigned to %s", userCfg.ID, owner)
			}
			keyHashMap[keyHash] = userCfg.ID
		}
	}

	p.mu.Lock()
	p.users = users
	p.keyHashMap = keyHashMap
	p.mu.Unlock()

	return nil
}

// ReloadFromConfig reloads users from new configuration.
// This is called by the gateway when config changes. On error the previous
// users stay in effect.
func (p *Provider) ReloadFromConfig(cfg *config.Config) error {
	return p.loadUsers(cfg)
}

// HashAPIKey creates a SHA-256 hash of an API key for storage.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

var _ ports.AuthProvider = (*Provider)(nil)
