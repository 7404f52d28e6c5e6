package httpx

import (
	"encoding/binary"
	"net/http"
	"net/netip"
	"strings"

	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// ClientIP resolves the caller address from the first X-Forwarded-For
// entry, then X-Real-IP. The socket address is not consulted; ok is false
// when neither header is set.
func ClientIP(r *http.Request) (string, bool) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, true
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri, true
	}
	return "", false
}

// IsAllowed reports whether ip matches any entry of allowlist. Entries are
// either exact addresses or CIDR blocks; IPv4 blocks are matched by masking
// the 32-bit address and network.
func IsAllowed(ip string, allowlist []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, entry := range allowlist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
				return true
			}
			continue
		}
		if matchCIDR(addr, entry) {
			return true
		}
	}
	return false
}

func matchCIDR(addr netip.Addr, cidr string) bool {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return false
	}
	network := prefix.Addr().Unmap()
	if !network.Is4() || !addr.Is4() {
		return prefix.Contains(addr)
	}

	bits := prefix.Bits()
	var mask uint32
	if bits > 0 {
		mask = ^uint32(0) << (32 - bits)
	}
	a, n := addr.As4(), network.As4()
	return binary.BigEndian.Uint32(a[:])&mask == binary.BigEndian.Uint32(n[:])&mask
}

// IPAllowConfig configures the gateway-wide allowlist. Permissive lets
// requests through when the list is empty or the caller cannot be resolved;
// it must be switched on explicitly.
type IPAllowConfig struct {
	Allowlist  []string
	Permissive bool
}

// IPAllowlistMiddleware rejects callers outside cfg.Allowlist with 403
// forbidden and stores the resolved address in the request context.
func IPAllowlistMiddleware(cfg IPAllowConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, ok := ClientIP(r)

			reason := ""
			switch {
			case !ok && !cfg.Permissive:
				reason = "unresolved"
			case ok && len(cfg.Allowlist) == 0 && !cfg.Permissive:
				reason = "empty_allowlist"
			case ok && len(cfg.Allowlist) > 0 && !IsAllowed(ip, cfg.Allowlist):
				reason = "not_allowlisted"
			}

			if reason != "" {
				slogx.FromContext(r.Context()).Warn("request denied",
					"reason", reason,
					"ip", ip,
				)
				WriteError(w, http.StatusForbidden, "forbidden", "IP address not allowed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
		})
	}
}

// ClientAllowlistMiddleware enforces a per-client allowlist after bearer
// authentication. Clients without an allowlist pass.
func ClientAllowlistMiddleware(allowlistFor func(clientID string) []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ClientIDFromContext(r.Context())
			list := allowlistFor(clientID)
			if len(list) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip, ok := ClientIPFromContext(r.Context())
			if !ok {
				ip, ok = ClientIP(r)
			}
			if !ok || !IsAllowed(ip, list) {
				slogx.FromContext(r.Context()).Warn("request denied",
					"reason", "client_ip_not_allowlisted",
					"client_id", clientID,
					"ip", ip,
				)
				WriteError(w, http.StatusForbidden, "forbidden", "IP address not allowed for client")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
