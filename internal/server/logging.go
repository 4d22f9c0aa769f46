package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type logFieldsKey struct{}

// requestFields collects attributes that handlers attach to the request log.
// Keys keep the position of their first write.
type requestFields struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (f *requestFields) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.attrs {
		if f.attrs[i].Key == key {
			f.attrs[i].Value = slog.StringValue(value)
			return
		}
	}
	f.attrs = append(f.attrs, slog.String(key, value))
}

func (f *requestFields) snapshot() []slog.Attr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]slog.Attr(nil), f.attrs...)
}

// LoggingMiddleware writes one line when a request arrives and one when it
// completes. The completion line carries the status, the response size and
// any fields added with AddLogField, and is logged at Warn for 4xx and
// Error for 5xx responses.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			fields := &requestFields{}
			ctx := context.WithValue(r.Context(), logFieldsKey{}, fields)
			requestID := GetRequestID(r.Context())

			logger.InfoContext(ctx, "request started",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			attrs := append([]slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("response_bytes", rec.written),
				slog.Duration("duration", time.Since(start)),
			}, fields.snapshot()...)

			logger.LogAttrs(ctx, levelForStatus(rec.status), "request completed", attrs...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// responseRecorder records the status code and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (rw *responseRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// AddLogField sets key on the completion line of the current request.
// Empty values are ignored, and a repeated key keeps its latest value. It is
// a no-op outside LoggingMiddleware.
func AddLogField(ctx context.Context, key, value string) {
	if value == "" {
		return
	}
	if fields, ok := ctx.Value(logFieldsKey{}).(*requestFields); ok {
		fields.set(key, value)
	}
}

// AddError records err under the "error" field.
func AddError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	AddLogField(ctx, "error", err.Error())
}
