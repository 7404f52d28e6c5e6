package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// RequireScope the caller's token must carry scope.
func RequireScope(scope string) Middleware {
	return RequireAllScopes(scope)
}

// RequireAllScopes the caller must have every scope listed.
func RequireAllScopes(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := make(map[string]struct{})
			for _, s := range scopesFromCtx(r.Context()) {
				have[s] = struct{}{}
			}

			for _, req := range required {
				if _, ok := have[req]; !ok {
					denyScope(w, r, required...)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func denyScope(w http.ResponseWriter, r *http.Request, required ...string) {
	scope := strings.Join(required, " ")
	slogx.FromContext(r.Context()).Warn("request denied",
		"reason", "insufficient_scope",
		"required", scope,
	)
	w.Header().Set("WWW-Authenticate",
		`Bearer realm="`+BearerRealm+`", error="insufficient_scope", scope="`+scope+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_scope", "Token does not have required scope: "+scope)
}
