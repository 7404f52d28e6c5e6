package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// BearerRealm is advertised in WWW-Authenticate challenges.
const BearerRealm = "M2M API"

// AuthnMiddleware requires a valid bearer token and injects its claims into
// the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, desc := bearerToken(r)
			if desc != "" {
				log.Warn("request denied", "reason", "missing_bearer")
				writeBearerError(w, http.StatusUnauthorized, "invalid_request", desc)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrNoSecret) {
					log.Error("token verification unavailable", "err", err)
					WriteError(w, http.StatusInternalServerError, "server_error", "internal server configuration error")
					return
				}
				log.Warn("request denied", "reason", "invalid_token", "err", err)
				writeBearerError(w, http.StatusUnauthorized, "invalid_token", "token verification failed")
				return
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.WithContext(ctx, log.With("client_id", claims.ClientID))
			slogx.AddAccessAttrs(ctx, slog.String("client_id", claims.ClientID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the token or a description of what is wrong with the
// Authorization header.
func bearerToken(r *http.Request) (string, string) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", "missing Authorization header"
	}
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "Authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer realm="`+BearerRealm+`", error="`+code+`", error_description="`+desc+`"`)
	WriteError(w, status, code, desc)
}
