package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/m2mgate/pkg/ratelimit"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// RateLimitPolicy is the number of requests allowed per window.
type RateLimitPolicy struct {
	Requests int
	Window   time.Duration
}

// Default policies, keyed by caller IP.
var (
	// ReadPolicy for search and other read endpoints.
	ReadPolicy = RateLimitPolicy{Requests: 100, Window: time.Minute}

	// WritePolicy for create and update endpoints.
	WritePolicy = RateLimitPolicy{Requests: 20, Window: time.Minute}

	// TokenPolicy for the token endpoint.
	TokenPolicy = RateLimitPolicy{Requests: 20, Window: time.Minute}
)

// KeyExtractor derives the limiter bucket for a request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys by the resolved caller address, falling back to the
// socket peer so direct callers still share one bucket per host.
func IPKeyExtractor(r *http.Request) string {
	if ip, ok := ClientIPFromContext(r.Context()); ok {
		return ip
	}
	if ip, ok := ClientIP(r); ok {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// StaticKey returns the same key for every request. Combined with
// CompositeKeyExtractor it separates buckets per endpoint class.
func StaticKey(key string) KeyExtractor {
	return func(*http.Request) string { return key }
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep,
// e.g. "read:192.0.2.10".
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// RateLimitMiddleware checks every request against l using policy. Allowed
// responses carry X-RateLimit-Limit and X-RateLimit-Remaining; denied ones
// get 429 with X-RateLimit-Reset (epoch ms), Retry-After and a resetAt body
// field.
func RateLimitMiddleware(l ratelimit.Limiter, policy RateLimitPolicy, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				key = "unknown"
			}

			res, err := l.Check(ctx, key, policy.Requests, policy.Window)
			if err != nil {
				log.Error("rate limit check failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retryAfter := max(int(time.Until(res.ResetAt).Seconds()), 1)
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn("request denied",
					"reason", "rate_limited",
					"key", key,
					"endpoint", r.URL.Path,
					"reset_at", res.ResetAt,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "too_many_requests",
					"error_description": "Too many requests. Please try again later.",
					"resetAt":           res.ResetAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
