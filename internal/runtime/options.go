package runtime

import (
	"fmt"
	"log/slog"

	"github.com/tjfontaine/opchain-gateway/internal/adapters/config/file"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/storage/memory"
	"github.com/tjfontaine/opchain-gateway/internal/storage/sqlite"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for changes.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		provider, err := file.NewProvider(path, file.WithLogger(g.logger))
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		g.config = provider
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
// For advanced use cases where you need full control over config loading.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(g *Gateway) error {
		g.config = provider
		return nil
	}
}

// WithAPIKeyAuth authenticates requests against the users in the loaded
// configuration. The key table follows config reloads.
func WithAPIKeyAuth() Option {
	return func(g *Gateway) error {
		g.apiKeyAuth = true
		return nil
	}
}

// WithAuthProvider sets a custom auth provider.
func WithAuthProvider(provider ports.AuthProvider) Option {
	return func(g *Gateway) error {
		g.auth = provider
		g.apiKeyAuth = false
		return nil
	}
}

// WithSQLite records rewrites in a SQLite database at path.
func WithSQLite(path string) Option {
	return func(g *Gateway) error {
		store, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		g.store = store
		return nil
	}
}

// WithMemoryStorage records rewrites in memory, keeping at most capacity
// records (zero keeps all).
func WithMemoryStorage(capacity int) Option {
	return func(g *Gateway) error {
		g.store = memory.New(capacity)
		return nil
	}
}

// WithAuditStore sets a custom audit store.
func WithAuditStore(store ports.AuditStore) Option {
	return func(g *Gateway) error {
		g.store = store
		return nil
	}
}

// WithEngine sets the engine chains are executed by. Defaults to the
// dry-run engine.
func WithEngine(engine ports.Engine) Option {
	return func(g *Gateway) error {
		g.engine = engine
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}
