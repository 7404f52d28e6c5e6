package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig describes the headers sent on preflight and actual responses.
type CORSConfig struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// TokenEndpointCORS is the policy for the OAuth2 token endpoint.
var TokenEndpointCORS = CORSConfig{
	AllowOrigin:  "*",
	AllowMethods: []string{http.MethodPost, http.MethodOptions},
	AllowHeaders: []string{"Content-Type", "Authorization"},
	MaxAge:       24 * time.Hour,
}

// PreflightHandler answers OPTIONS requests with 204 and the CORS headers.
func PreflightHandler(cfg CORSConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w, cfg)
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
		w.WriteHeader(http.StatusNoContent)
	})
}

// CORSMiddleware adds the allow-origin header to actual responses.
func CORSMiddleware(cfg CORSConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setCORS(w, cfg)
			next.ServeHTTP(w, r)
		})
	}
}

func setCORS(w http.ResponseWriter, cfg CORSConfig) {
	if cfg.AllowOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigin)
	}
}
