package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// TimeoutMiddleware gives each request a deadline that handlers and engines
// observe through the request context. A request that outlives its deadline
// gets a "timeout" field on its log line. A non-positive timeout disables
// the deadline.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				AddLogField(ctx, "timeout", timeout.String())
			}
		})
	}
}
