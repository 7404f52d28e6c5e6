package m2msdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UserContextHeader carries the originating user's identity.
const UserContextHeader = "X-User-Context"

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request, adding the bearer token from ts and
// the user context when given.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	ts *TokenSource,
	uc *UserContext,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if ts != nil {
		token, err := ts.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if uc != nil {
		raw, err := json.Marshal(uc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode user context: %w", err)
		}
		req.Header.Set(UserContextHeader, string(raw))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// decodeJSON decodes the body into target, or returns an *OAuth2Error when
// the status is not expectedStatus.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		if err := parseErrorResponse(resp, bodyBytes); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
