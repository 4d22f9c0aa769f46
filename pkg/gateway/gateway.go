// Package gateway provides the public API for embedding the chain gateway.
// This is the stable API for external consumers.
package gateway

import (
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/runtime"
)

// Gateway is the main entry point for running the chain gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// Types needed to plug in a custom engine, auth provider, or audit store.
type (
	Operation     = domain.Operation
	Op            = domain.Op
	Chain         = domain.Chain
	Principal     = domain.Principal
	RewriteRecord = domain.RewriteRecord

	Engine         = ports.Engine
	AuthProvider   = ports.AuthProvider
	ConfigProvider = ports.ConfigProvider
	AuditStore     = ports.AuditStore
)

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithFileConfig("config.yaml"),
//	    gateway.WithSQLite("./data/opchain.db"),
//	    gateway.WithAPIKeyAuth(),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Authentication
	WithAPIKeyAuth   = runtime.WithAPIKeyAuth
	WithAuthProvider = runtime.WithAuthProvider

	// Storage
	WithSQLite        = runtime.WithSQLite
	WithMemoryStorage = runtime.WithMemoryStorage
	WithAuditStore    = runtime.WithAuditStore

	// Advanced options
	WithEngine = runtime.WithEngine
	WithLogger = runtime.WithLogger
)

// Constructors for chains built in Go.
var (
	NewChain     = domain.NewChain
	NewOp        = domain.NewOp
	NewPrincipal = domain.NewPrincipal
)
