// Package chains serves the chain execution HTTP API.
package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/opchain-gateway/internal/codec"
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
	"github.com/tjfontaine/opchain-gateway/internal/pipeline"
	"github.com/tjfontaine/opchain-gateway/internal/server"
)

// MaxBodyBytes caps the size of a chain document.
const MaxBodyBytes = 1 << 20

// Runner runs the configured hooks around an engine.
type Runner interface {
	RunPre(ctx context.Context, chain *domain.Chain, principal *domain.Principal) error
	Run(ctx context.Context, engine ports.Engine, chain *domain.Chain, principal *domain.Principal) (any, error)
}

// RunnerFunc returns the runner for the current configuration, or nil when
// no hooks are configured.
type RunnerFunc func() Runner

type Handler struct {
	runner RunnerFunc
	engine ports.Engine
	store  ports.AuditStore
	logger *slog.Logger
}

func NewHandler(runner RunnerFunc, engine ports.Engine, store ports.AuditStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner: runner,
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Mount registers the health check on public and the chain API on protected.
func (h *Handler) Mount(public, protected chi.Router) {
	public.Get("/healthz", h.HandleHealth)

	protected.Post("/v1/chains/execute", h.HandleExecute)
	protected.Post("/v1/chains/rewrite", h.HandleRewrite)
	protected.Get("/v1/rewrites", h.HandleListRewrites)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type executeResponse struct {
	Chain  *codec.Document `json:"chain"`
	Result any             `json:"result"`
}

// HandleExecute runs the full hook lifecycle and the engine.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	chain, ok := h.decodeChain(w, r)
	if !ok {
		return
	}
	principal := server.GetPrincipal(r.Context())

	var result any
	var err error
	if runner := h.currentRunner(); runner != nil {
		result, err = runner.Run(r.Context(), h.engine, chain, principal)
	} else {
		result, err = h.engine.Execute(r.Context(), chain, principal)
	}
	if err != nil {
		h.writeRunError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Chain:  codec.ToDocument(chain),
		Result: result,
	})
}

// HandleRewrite runs only the pre-execution hooks and returns the chain the
// engine would receive.
func (h *Handler) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	chain, ok := h.decodeChain(w, r)
	if !ok {
		return
	}

	if runner := h.currentRunner(); runner != nil {
		if err := runner.RunPre(r.Context(), chain, server.GetPrincipal(r.Context())); err != nil {
			h.writeRunError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"chain": codec.ToDocument(chain)})
}

// HandleListRewrites lists audit records, newest first.
func (h *Handler) HandleListRewrites(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		codec.WriteError(w, domain.NewAPIError(domain.ErrorTypeNotFound, "audit storage is not configured"))
		return
	}

	query := r.URL.Query()
	limit, err := queryInt(query.Get("limit"), "limit")
	if err != nil {
		codec.WriteError(w, err)
		return
	}
	offset, err := queryInt(query.Get("offset"), "offset")
	if err != nil {
		codec.WriteError(w, err)
		return
	}
	opts := ports.ListOptions{UserID: query.Get("user"), Limit: limit, Offset: offset}

	records, err := h.store.ListRewrites(r.Context(), opts)
	if err != nil {
		server.AddError(r.Context(), err)
		codec.WriteError(w, domain.ErrServer("failed to list rewrites"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rewrites": records})
}

// queryInt parses a non-negative integer query parameter; empty is zero.
func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewAPIError(domain.ErrorTypeInvalidRequest, fmt.Sprintf("invalid %s %q", name, raw))
	}
	return n, nil
}

func (h *Handler) currentRunner() Runner {
	if h.runner == nil {
		return nil
	}
	return h.runner()
}

func (h *Handler) decodeChain(w http.ResponseWriter, r *http.Request) (*domain.Chain, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		codec.WriteError(w, domain.ErrInvalidChain(fmt.Sprintf("failed to read body: %v", err)))
		return nil, false
	}

	chain, err := codec.DecodeChain(body)
	if err != nil {
		server.AddError(r.Context(), err)
		codec.WriteError(w, err)
		return nil, false
	}

	server.AddLogField(r.Context(), "chain_operations", strconv.Itoa(chain.Len()))
	return chain, true
}

func (h *Handler) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	server.AddError(r.Context(), err)

	if pipeline.IsHookError(err) {
		h.logger.ErrorContext(r.Context(), "hook aborted chain",
			slog.String("request_id", server.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		codec.WriteError(w, domain.ErrHook(err.Error()))
		return
	}

	h.logger.ErrorContext(r.Context(), "chain execution failed",
		slog.String("request_id", server.GetRequestID(r.Context())),
		slog.String("error", err.Error()),
	)
	codec.WriteError(w, domain.ErrServer(err.Error()).WithCode(domain.ErrorCodeEngineFailed))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
