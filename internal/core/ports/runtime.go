package ports

import (
	"context"

	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
)

// ConfigProvider loads and manages configuration.
// Implementations: file-based (default).
type ConfigProvider interface {
	Load(ctx context.Context) (*config.Config, error)
	Watch(ctx context.Context, onChange func(*config.Config)) error
	Close() error
}

// AuthProvider resolves a bearer token into the principal that executes a
// chain.
type AuthProvider interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}
