package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

type reqIDKey struct{}

type accessKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithRequestID tags the context logger and remembers the id.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	ctx = context.WithValue(ctx, reqIDKey{}, reqID)
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}

// accessAttrs collects attributes for the access-log line of one request.
// Handlers deeper in the chain only see a derived context, so the line is
// shared by pointer.
type accessAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// AddAccessAttrs annotates the http_request line written by HTTPMiddleware.
// It is a no-op outside a request handled by the middleware.
func AddAccessAttrs(ctx context.Context, attrs ...slog.Attr) {
	a, ok := ctx.Value(accessKey{}).(*accessAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	a.attrs = append(a.attrs, attrs...)
	a.mu.Unlock()
}

func (a *accessAttrs) snapshot() []slog.Attr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]slog.Attr(nil), a.attrs...)
}
