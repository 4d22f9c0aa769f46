package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

// DefaultTimeout bounds request handling when no timeout is configured.
const DefaultTimeout = 30 * time.Second

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
	auth   ports.AuthProvider
	http   *http.Server
}

// New builds the router with the common middleware stack. Routes that need a
// principal are registered on Protected().
func New(port int, logger *slog.Logger, authProvider ports.AuthProvider, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "opchain-gateway")
	})

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
		auth:   authProvider,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Protected returns a router whose routes run with the request's principal
// in context. Without an auth provider every request is anonymous.
func (s *Server) Protected() chi.Router {
	return s.Router.With(AuthMiddleware(s.auth))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.Int("port", s.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
