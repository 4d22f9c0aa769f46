// Package config loads the gateway configuration from a YAML file overlaid by
// OPCHAIN_ environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Hook types understood by the pipeline factory.
const (
	HookTypeAddOperations = "add_operations_to_chain"
	HookTypeAudit         = "audit"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Users   []UserConfig  `koanf:"users"`
	Hooks   []HookConfig  `koanf:"hooks"`
}

type ServerConfig struct {
	Port    int    `koanf:"port"`
	Timeout string `koanf:"timeout"` // Duration string like "30s"
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	Memory MemoryConfig `koanf:"memory"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

// MemoryConfig bounds the in-memory audit store. Zero selects the store's
// default capacity.
type MemoryConfig struct {
	Capacity int `koanf:"capacity"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// UserConfig declares a principal and the API keys that authenticate as it.
type UserConfig struct {
	ID      string         `koanf:"id"`
	APIKeys []APIKeyConfig `koanf:"api_keys"`
	OpAuths []string       `koanf:"op_auths"`
}

type APIKeyConfig struct {
	Key         string `koanf:"key"` // plain key, usually "${ENV_VAR}"; hashed at load
	KeyHash     string `koanf:"key_hash"`
	Description string `koanf:"description"`
}

// HookConfig configures one hook in the pipeline. Hooks run in ascending
// Order; ties keep file order.
type HookConfig struct {
	Name          string              `koanf:"name"`
	Type          string              `koanf:"type"`
	Order         int                 `koanf:"order"`
	AddOperations AddOperationsConfig `koanf:"add_operations"`
}

// AddOperationsConfig configures the add_operations_to_chain hook.
type AddOperationsConfig struct {
	// NestedChainMode is "flatten-and-preserve" (default) or "flatten-only".
	NestedChainMode string `koanf:"nested_chain_mode"`
	// CopyPerSite clones injected operations at each insertion point instead
	// of sharing the configured instance.
	CopyPerSite bool                      `koanf:"copy_per_site"`
	Default     RuleSetConfig             `koanf:"default"`
	Authorised  []AuthorisedRuleSetConfig `koanf:"authorised"`
}

// RuleSetConfig is the configuration form of an insertion rule set. Before
// and After are lists rather than maps because type identifiers usually
// contain dots, which koanf treats as key separators.
type RuleSetConfig struct {
	Start  []OperationConfig `koanf:"start"`
	End    []OperationConfig `koanf:"end"`
	Before []TypeRuleConfig  `koanf:"before"`
	After  []TypeRuleConfig  `koanf:"after"`
}

// TypeRuleConfig injects Operations next to every operation of Type.
type TypeRuleConfig struct {
	Type       string            `koanf:"type"`
	Operations []OperationConfig `koanf:"operations"`
}

// AuthorisedRuleSetConfig applies Rules to principals holding Auth. Entries
// are matched in file order.
type AuthorisedRuleSetConfig struct {
	Auth  string        `koanf:"auth"`
	Rules RuleSetConfig `koanf:"rules"`
}

type OperationConfig struct {
	Type    string         `koanf:"type"`
	Payload map[string]any `koanf:"payload"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the configuration from path (DefaultPath when empty). A missing
// file is not an error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("OPCHAIN_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "OPCHAIN_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in API keys
	for i := range cfg.Users {
		for j := range cfg.Users[i].APIKeys {
			cfg.Users[i].APIKeys[j].Key = substituteEnvVars(cfg.Users[i].APIKeys[j].Key)
		}
	}

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
