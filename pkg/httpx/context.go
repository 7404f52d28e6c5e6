package httpx

import (
	"context"

	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyClientID ctxKey = "client_id"
	CtxKeyScopes   ctxKey = "scopes"
	CtxKeyClaims   ctxKey = "claims"
	CtxKeyClientIP ctxKey = "client_ip"
)

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyClientID, c.ClientID)
	ctx = context.WithValue(ctx, CtxKeyScopes, c.Scopes)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// ClientIDFromContext returns the authenticated client id or "".
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyClientID).(string)
	return id
}

// WithClientIP stores the resolved caller address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, CtxKeyClientIP, ip)
}

// ClientIPFromContext returns the address resolved by the allowlist filter.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(CtxKeyClientIP).(string)
	return ip, ok && ip != ""
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
