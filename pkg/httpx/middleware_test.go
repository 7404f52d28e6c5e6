package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims map[string]jwtx.Claims
	err    error
}

func (f *fakeVerifier) Verify(token string) (jwtx.Claims, error) {
	if f.err != nil {
		return jwtx.Claims{}, f.err
	}
	c, ok := f.claims[token]
	if !ok {
		return jwtx.Claims{}, jwtx.ErrInvalidSig
	}
	return c, nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mk("ip"), mk("rate"), mk("auth"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"ip", "rate", "auth", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	v := &fakeVerifier{claims: map[string]jwtx.Claims{
		"good": {ClientID: "svc", Scopes: []string{"customers:read"}, TokenType: jwtx.TokenTypeAccess},
	}}

	var got jwtx.Claims
	h := httpx.AuthnMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = httpx.ClaimsFromContext(r.Context())
		require.Equal(t, "svc", httpx.ClientIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"missing header", "", http.StatusUnauthorized, "invalid_request"},
		{"basic scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "invalid_request"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "invalid_request"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"good token", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), `realm="M2M API"`)
				require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
				require.Equal(t, tt.wantErr, decodeError(t, rec))
			} else {
				require.Equal(t, "svc", got.ClientID)
			}
		})
	}
}

func TestAuthnMiddleware_NoSecret(t *testing.T) {
	h := httpx.AuthnMiddleware(&fakeVerifier{err: jwtx.ErrNoSecret})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "server_error", decodeError(t, rec))
}

func TestScopeMiddleware(t *testing.T) {
	v := &fakeVerifier{claims: map[string]jwtx.Claims{
		"read":  {ClientID: "r", Scopes: []string{"customers:read"}},
		"both":  {ClientID: "b", Scopes: []string{"customers:read", "customers:write"}},
		"empty": {ClientID: "e"},
	}}

	tests := []struct {
		name  string
		mw    httpx.Middleware
		token string
		want  int
	}{
		{"require scope present", httpx.RequireScope("customers:read"), "read", http.StatusOK},
		{"require scope missing", httpx.RequireScope("customers:write"), "read", http.StatusForbidden},
		{"no scopes", httpx.RequireScope("customers:read"), "empty", http.StatusForbidden},
		{"all of", httpx.RequireAllScopes("customers:read", "customers:write"), "both", http.StatusOK},
		{"all of partial", httpx.RequireAllScopes("customers:read", "customers:write"), "read", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.Chain(okHandler(), httpx.AuthnMiddleware(v), tt.mw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				require.Equal(t, "insufficient_scope", decodeError(t, rec))
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="insufficient_scope"`)
			}
		})
	}
}

func TestPreflightHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.PreflightHandler(httpx.TokenEndpointCORS).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	require.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestParseFields(t *testing.T) {
	require.Nil(t, httpx.ParseSpaceDelimitedFields("   "))
	require.Equal(t, []string{"a", "b"}, httpx.ParseSpaceDelimitedFields(" a  b "))
	require.Equal(t, []string{"10.0.0.0/8", "1.2.3.4"}, httpx.ParseCommaDelimitedFields("10.0.0.0/8, ,1.2.3.4"))
	require.Nil(t, httpx.ParseCommaDelimitedFields(""))
}

