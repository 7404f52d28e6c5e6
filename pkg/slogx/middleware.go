package slogx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/m2mgate/pkg/idx"
)

// HTTPMiddleware writes one http_request line per request and puts a
// request-scoped logger into the context. The request id is taken from
// X-Request-ID when it is a ULID, otherwise generated, and echoed back. Server errors log at error
// level and client errors at warn.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := idx.New().String()
			if id, err := idx.Parse(r.Header.Get("X-Request-ID")); err == nil {
				reqID = id.String()
			}
			w.Header().Set("X-Request-ID", reqID)

			access := &accessAttrs{}
			ctx := context.WithValue(r.Context(), accessKey{}, access)
			ctx = WithRequestID(WithContext(ctx, base.With("method", r.Method, "path", r.URL.Path)), reqID)

			next.ServeHTTP(rw, r.WithContext(ctx))

			attrs := append([]slog.Attr{
				slog.Int("status", rw.status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int("bytes", rw.bytes),
				slog.String("user_agent", r.UserAgent()),
			}, access.snapshot()...)

			FromContext(ctx).LogAttrs(ctx, levelFor(rw.status), "http_request", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type responseWriter struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}
