//go:build e2e

package gateway_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/m2mgate/pkg/m2msdk"
)

func TestHealth(t *testing.T) {
	client := m2msdk.NewClient(setupGatewayContainer(t, nil))

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks["database"])
}

func TestClientCredentials_ScopeEnforcement(t *testing.T) {
	client := m2msdk.NewClient(setupGatewayContainer(t, nil))
	ctx := t.Context()

	// A read-only client asking for write is refused outright.
	_, err := client.ClientCredentialsGrant(ctx, measureClientID, measureClientSecret, []string{scopeWrite})
	requireOAuth2Error(t, err, http.StatusBadRequest, m2msdk.ErrorCodeInvalidScope)

	tok, err := client.ClientCredentialsGrant(ctx, measureClientID, measureClientSecret, []string{scopeRead})
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, scopeRead, tok.Scope)

	reader := client.TokenSource(measureClientID, measureClientSecret, []string{scopeRead})

	_, err = client.SearchCustomers(ctx, reader, nil, m2msdk.SearchCustomersRequest{Query: "x"})
	require.NoError(t, err)

	_, err = client.CreateCustomer(ctx, reader, alice(), m2msdk.CreateCustomerRequest{Name: "Taro"})
	requireOAuth2Error(t, err, http.StatusForbidden, m2msdk.ErrorCodeInsufficientScope)
}

func TestClientCredentials_InvalidClient(t *testing.T) {
	client := m2msdk.NewClient(setupGatewayContainer(t, nil))

	_, err := client.ClientCredentialsGrant(t.Context(), orderClientID, "wrong", nil)
	requireOAuth2Error(t, err, http.StatusUnauthorized, m2msdk.ErrorCodeInvalidClient)

	_, err = client.ClientCredentialsGrant(t.Context(), "ghost", "wrong", nil)
	requireOAuth2Error(t, err, http.StatusUnauthorized, m2msdk.ErrorCodeInvalidClient)
}

func TestCustomers_Lifecycle(t *testing.T) {
	client := m2msdk.NewClient(setupGatewayContainer(t, nil))
	ctx := t.Context()
	writer := client.TokenSource(orderClientID, orderClientSecret, nil)

	created, err := client.CreateCustomer(ctx, writer, alice(), m2msdk.CreateCustomerRequest{
		CustomerCode: "E2E-001",
		Name:         "ﾔﾏﾀﾞ ﾀﾛｳ",
		Email:        "taro@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "ヤマダ タロウ", created.Name)

	_, err = client.CreateCustomer(ctx, writer, alice(), m2msdk.CreateCustomerRequest{
		CustomerCode: "E2E-001",
		Name:         "Duplicate",
	})
	requireOAuth2Error(t, err, http.StatusConflict, m2msdk.ErrorCodeConflict)

	city := "Sapporo"
	updated, err := client.UpdateCustomer(ctx, writer, alice(), created.ID, m2msdk.UpdateCustomerRequest{City: &city})
	require.NoError(t, err)
	require.Equal(t, city, updated.City)

	found, err := client.SearchCustomers(ctx, writer, alice(), m2msdk.SearchCustomersRequest{
		Query:  "ヤマダ",
		Fields: []string{"id", "code"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, found.Count)
	require.Equal(t, created.ID, found.Customers[0]["id"])
	require.Equal(t, "E2E-001", found.Customers[0]["code"])

	// Another plain user does not see alice's rows.
	bob := &m2msdk.UserContext{UserID: "ext-bob", Email: "bob@example.com"}
	_, err = client.UpdateCustomer(ctx, writer, bob, created.ID, m2msdk.UpdateCustomerRequest{City: &city})
	requireOAuth2Error(t, err, http.StatusNotFound, m2msdk.ErrorCodeNotFound)
}

func TestIPAllowlist_StrictMode(t *testing.T) {
	baseURL := setupGatewayContainer(t, map[string]string{
		"M2M_IP_PERMISSIVE": "false",
		"M2M_ALLOWED_IPS":   "10.0.0.0/8",
	})

	post := func(xff string) *http.Response {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {orderClientID},
			"client_secret": {orderClientSecret},
		}
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/oauth2/token",
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	require.Equal(t, http.StatusForbidden, post("").StatusCode)
	require.Equal(t, http.StatusForbidden, post("203.0.113.5").StatusCode)
	require.Equal(t, http.StatusOK, post("10.20.30.40").StatusCode)
}

func TestRateLimit_TokenEndpoint(t *testing.T) {
	client := m2msdk.NewClient(setupGatewayContainer(t, map[string]string{
		"RATELIMIT_TOKEN_REQUESTS": "3",
	}))

	for range 3 {
		_, err := client.ClientCredentialsGrant(t.Context(), orderClientID, "wrong", nil)
		requireOAuth2Error(t, err, http.StatusUnauthorized, m2msdk.ErrorCodeInvalidClient)
	}

	_, err := client.ClientCredentialsGrant(t.Context(), orderClientID, orderClientSecret, nil)
	requireOAuth2Error(t, err, http.StatusTooManyRequests, m2msdk.ErrorCodeTooManyRequests)

	var oe *m2msdk.OAuth2Error
	require.ErrorAs(t, err, &oe)
	require.NotEmpty(t, oe.ResetAt)
}
