// Package runtime provides the core Gateway struct and lifecycle management
// for the operation chain gateway.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tjfontaine/opchain-gateway/internal/adapters/auth/apikey"
	"github.com/tjfontaine/opchain-gateway/internal/api/chains"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/engine/dryrun"
	"github.com/tjfontaine/opchain-gateway/internal/hook/addops"
	"github.com/tjfontaine/opchain-gateway/internal/pipeline"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
	"github.com/tjfontaine/opchain-gateway/internal/server"
	"github.com/tjfontaine/opchain-gateway/internal/storage/memory"
	"github.com/tjfontaine/opchain-gateway/internal/storage/sqlite"
)

// Gateway is the main entry point for running the chain gateway.
// It manages configuration, hooks, storage, and HTTP server lifecycle.
// Gateway can be embedded in larger applications or run standalone.
type Gateway struct {
	// Dependencies (injected via options)
	config     ports.ConfigProvider
	auth       ports.AuthProvider
	apiKeyAuth bool
	store      ports.AuditStore
	engine     ports.Engine

	// Internal state
	executor atomic.Pointer[pipeline.Executor]
	server   *server.Server
	logger   *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// New creates a new Gateway with the given options.
// A config provider is required; storage defaults to the configured
// storage.type and the engine to the dry-run engine.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger: slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	// Validate required dependencies
	if gw.config == nil {
		return nil, fmt.Errorf("config provider required (use WithFileConfig or WithConfigProvider)")
	}

	if gw.engine == nil {
		gw.logger.Info("no engine specified, using dry-run engine")
		gw.engine = dryrun.New(gw.logger)
	}
	if gw.auth == nil && !gw.apiKeyAuth {
		gw.logger.Info("no auth provider specified, all requests run as anonymous")
	}

	return gw, nil
}

// Start loads configuration, builds the hook pipeline, and starts serving.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.init(ctx); err != nil {
		return err
	}

	go func() {
		if err := g.server.Start(); err != nil {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Watch for config changes
	g.watchConfig()

	return nil
}

// init prepares everything Start needs short of listening.
func (g *Gateway) init(ctx context.Context) error {
	g.ctx, g.cancel = context.WithCancel(ctx)

	// Load initial config
	cfg, err := g.config.Load(g.ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if g.store == nil {
		if g.store, err = storeFromConfig(cfg.Storage); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
	}

	if g.apiKeyAuth {
		provider, err := apikey.NewProvider(cfg)
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
		g.auth = provider
	}

	exec, err := pipeline.NewExecutorFromConfig(cfg.Hooks, g.store, g.logger)
	if err != nil {
		return fmt.Errorf("init hooks: %w", err)
	}
	g.executor.Store(exec)

	timeout, err := parseTimeout(cfg.Server.Timeout)
	if err != nil {
		return err
	}

	var authProvider ports.AuthProvider
	if g.auth != nil {
		authProvider = g.auth
	}
	g.server = server.New(cfg.Server.Port, g.logger, authProvider, timeout)

	handler := chains.NewHandler(g.runner, g.engine, g.store, g.logger)
	handler.Mount(g.server.Router, g.server.Protected())

	g.logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.Int("hooks", len(cfg.Hooks)),
		slog.Int("users", len(cfg.Users)))

	return nil
}

// Handler returns the gateway's HTTP handler. It is nil before Start.
func (g *Gateway) Handler() http.Handler {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.server == nil {
		return nil
	}
	return g.server.Router
}

// Executor returns the current hook executor, nil when no hooks are configured.
func (g *Gateway) Executor() *pipeline.Executor {
	return g.executor.Load()
}

func (g *Gateway) runner() chains.Runner {
	if exec := g.executor.Load(); exec != nil {
		return exec
	}
	return nil
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	// Stop HTTP server
	if g.server != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	// Close resources
	if g.config != nil {
		if err := g.config.Close(); err != nil {
			g.logger.Error("failed to close config", slog.String("error", err.Error()))
		}
	}

	if g.store != nil {
		if err := g.store.Close(); err != nil {
			g.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return nil
}

// watchConfig watches for config changes and reloads.
func (g *Gateway) watchConfig() {
	onChange := func(newCfg *config.Config) {
		g.logger.Info("config changed, reloading")
		if err := g.reload(newCfg); err != nil {
			g.logger.Error("failed to reload", slog.String("error", err.Error()))
		}
	}

	if err := g.config.Watch(g.ctx, onChange); err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}
}

// reload applies new configuration. When the hook lineup is unchanged the
// rewriting hooks keep running and receive their new registry in a single
// atomic swap each; otherwise the whole executor is replaced. An invalid
// configuration leaves the running one in place.
func (g *Gateway) reload(cfg *config.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.executor.Load()
	regs, same, err := pipeline.RegistriesFromConfig(current, cfg.Hooks)
	if err != nil {
		return fmt.Errorf("rebuild hooks: %w", err)
	}

	if same {
		for name, reg := range regs {
			h, _ := current.Hook(name)
			h.(*addops.Hook).Swap(reg)
		}
		g.logger.Info("hook registries swapped", slog.Int("hooks", len(regs)))
	} else {
		next, err := pipeline.NewExecutorFromConfig(cfg.Hooks, g.store, g.logger)
		if err != nil {
			return fmt.Errorf("rebuild hooks: %w", err)
		}
		g.executor.Store(next)
		g.logger.Info("hook pipeline replaced", slog.Int("hooks", len(cfg.Hooks)))
	}

	// Update auth provider with reloaded users if it supports reload
	if g.auth != nil {
		if reloader, ok := g.auth.(interface{ ReloadFromConfig(*config.Config) error }); ok {
			if err := reloader.ReloadFromConfig(cfg); err != nil {
				g.logger.Warn("failed to reload auth provider", slog.String("error", err.Error()))
			}
		}
	}

	g.logger.Info("reload complete")
	return nil
}

func storeFromConfig(cfg config.StorageConfig) (ports.AuditStore, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(cfg.Memory.Capacity), nil
	case "sqlite":
		path := cfg.SQLite.Path
		if path == "" {
			path = "./data/opchain.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		return sqlite.New(path)
	default:
		return nil, fmt.Errorf("unknown storage type %q (must be 'memory' or 'sqlite')", cfg.Type)
	}
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid server timeout %q: %w", s, err)
	}
	return d, nil
}
