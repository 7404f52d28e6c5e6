/*
Package m2msdk is the client SDK for the M2M gateway.

# Tokens

Services authenticate with the OAuth2 client_credentials grant:

	client := m2msdk.NewClient("https://gateway.example.com")
	tok, err := client.ClientCredentialsGrant(ctx, clientID, clientSecret, []string{"customers:read"})

Most callers want a TokenSource instead, which caches the token per set of
credentials and fetches a new one once 90% of its lifetime has passed:

	ts := client.TokenSource(clientID, clientSecret, []string{"customers:read", "customers:write"})
	access, err := ts.Token(ctx)

# Resources

Customer operations take a TokenSource and an optional UserContext that is
forwarded in the X-User-Context header:

	uc := &m2msdk.UserContext{UserID: "ext-42", Email: "staff@example.com", Role: "user"}
	c, err := client.CreateCustomer(ctx, ts, uc, m2msdk.CreateCustomerRequest{...})

# Errors

Non-2xx responses are returned as *OAuth2Error carrying the HTTP status, the
error code and its description. The same values are used by the gateway to
write responses, so errors.Is style comparisons on Code are stable:

	var oe *m2msdk.OAuth2Error
	if errors.As(err, &oe) && oe.Code == m2msdk.ErrorCodeTooManyRequests { ... }
*/
package m2msdk
