package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		ip        string
		allowlist []string
		want      bool
	}{
		{"cidr match", "10.0.0.5", []string{"10.0.0.0/24"}, true},
		{"cidr miss", "10.0.1.5", []string{"10.0.0.0/24"}, false},
		{"exact match", "203.0.113.7", []string{"203.0.113.7"}, true},
		{"exact miss", "203.0.113.8", []string{"203.0.113.7"}, false},
		{"unmasked network", "10.0.0.200", []string{"10.0.0.5/24"}, true},
		{"slash 32", "192.168.0.1", []string{"192.168.0.1/32"}, true},
		{"slash 0", "8.8.8.8", []string{"0.0.0.0/0"}, true},
		{"second entry", "172.16.5.4", []string{"10.0.0.0/8", " 172.16.0.0/12 "}, true},
		{"empty list", "10.0.0.5", nil, false},
		{"garbage ip", "not-an-ip", []string{"10.0.0.0/8"}, false},
		{"garbage entry", "10.0.0.5", []string{"10.0.0.0/abc"}, false},
		{"ipv6 exact", "2001:db8::1", []string{"2001:db8::1"}, true},
		{"ipv6 cidr", "2001:db8::1", []string{"2001:db8::/32"}, true},
		{"mapped ipv4", "::ffff:10.0.0.5", []string{"10.0.0.0/24"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, httpx.IsAllowed(tt.ip, tt.allowlist))
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	_, ok := httpx.ClientIP(req)
	require.False(t, ok, "socket address is not used")

	req.Header.Set("X-Real-IP", "203.0.113.9")
	ip, ok := httpx.ClientIP(req)
	require.True(t, ok)
	require.Equal(t, "203.0.113.9", ip)

	req.Header.Set("X-Forwarded-For", " 198.51.100.1 , 10.0.0.1")
	ip, ok = httpx.ClientIP(req)
	require.True(t, ok)
	require.Equal(t, "198.51.100.1", ip)
}

func TestIPAllowlistMiddleware(t *testing.T) {
	var seenIP string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenIP, _ = httpx.ClientIPFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		cfg  httpx.IPAllowConfig
		xff  string
		want int
	}{
		{"allowed", httpx.IPAllowConfig{Allowlist: []string{"10.0.0.0/24"}}, "10.0.0.5", http.StatusOK},
		{"not allowed", httpx.IPAllowConfig{Allowlist: []string{"10.0.0.0/24"}}, "10.0.1.5", http.StatusForbidden},
		{"unresolved", httpx.IPAllowConfig{Allowlist: []string{"10.0.0.0/24"}}, "", http.StatusForbidden},
		{"empty list fails closed", httpx.IPAllowConfig{}, "10.0.0.5", http.StatusForbidden},
		{"permissive empty list", httpx.IPAllowConfig{Permissive: true}, "10.0.0.5", http.StatusOK},
		{"permissive unresolved", httpx.IPAllowConfig{Permissive: true}, "", http.StatusOK},
		{"permissive still enforces list", httpx.IPAllowConfig{Allowlist: []string{"10.0.0.1"}, Permissive: true}, "10.0.0.2", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenIP = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()

			httpx.IPAllowlistMiddleware(tt.cfg)(next).ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.Equal(t, tt.xff, seenIP)
			} else {
				require.Contains(t, rec.Body.String(), `"forbidden"`)
			}
		})
	}
}

func TestClientAllowlistMiddleware(t *testing.T) {
	lists := map[string][]string{"restricted": {"10.1.0.0/16"}}
	lookup := func(id string) []string { return lists[id] }

	v := &fakeVerifier{claims: map[string]jwtx.Claims{
		"restricted-token": {ClientID: "restricted", TokenType: jwtx.TokenTypeAccess},
		"open-token":       {ClientID: "open", TokenType: jwtx.TokenTypeAccess},
	}}
	h := httpx.Chain(okHandler(), httpx.AuthnMiddleware(v), httpx.ClientAllowlistMiddleware(lookup))

	do := func(token, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("restricted-token", "10.1.2.3"))
	require.Equal(t, http.StatusForbidden, do("restricted-token", "10.2.2.3"))
	require.Equal(t, http.StatusOK, do("open-token", "10.2.2.3"))
}
