package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/tjfontaine/opchain-gateway/internal/codec"
	"github.com/tjfontaine/opchain-gateway/internal/core/domain"
	"github.com/tjfontaine/opchain-gateway/internal/core/ports"
)

type principalKey struct{}

// AuthMiddleware validates API keys and injects the principal into the
// request context. The API key is extracted from the Authorization header
// (Bearer token format). If the provider is nil, every request runs as the
// anonymous principal.
func AuthMiddleware(provider ports.AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider == nil {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), domain.Anonymous())))
				return
			}

			// Extract API key from Authorization header
			apiKey := r.Header.Get("Authorization")
			if apiKey == "" {
				codec.WriteError(w, domain.ErrAuthentication("missing Authorization header"))
				return
			}
			apiKey = strings.TrimPrefix(apiKey, "Bearer ")

			principal, err := provider.Authenticate(r.Context(), apiKey)
			if err != nil {
				AddError(r.Context(), err)
				codec.WriteError(w, domain.ErrAuthentication("invalid API key"))
				return
			}

			AddLogField(r.Context(), "user_id", principal.UserID)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying principal.
func WithPrincipal(ctx context.Context, principal *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves the principal from context.
// Returns nil if no principal is set.
func GetPrincipal(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(principalKey{}).(*domain.Principal); ok {
		return p
	}
	return nil
}
