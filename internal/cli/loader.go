package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tjfontaine/opchain-gateway/internal/codec"
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/pipeline"
	"github.com/tjfontaine/opchain-gateway/internal/pkg/config"
	"github.com/tjfontaine/opchain-gateway/internal/storage/memory"
)

// loadPipeline builds the configured hooks. Audit hooks record into a
// throwaway in-memory store.
func loadPipeline(path string, logger *slog.Logger) (*config.Config, *pipeline.Executor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	exec, err := pipeline.NewExecutorFromConfig(cfg.Hooks, memory.New(0), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build hooks: %w", err)
	}
	if exec == nil {
		exec = pipeline.NewExecutor(pipeline.ExecutorConfig{})
	}
	return cfg, exec, nil
}

// readChain decodes the chain at path, or stdin when path is "-".
func readChain(path string, stdin io.Reader) (*domain.Chain, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read chain: %w", err)
	}
	return codec.DecodeChain(data)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
