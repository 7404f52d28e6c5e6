package m2msdk

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to the M2M gateway.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// TokenPath defaults to /oauth2/token.
	TokenPath string

	mu    sync.Mutex
	cache *tokenCache
}

// NewClient creates a gateway client with a 10 second HTTP timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		TokenPath: "/oauth2/token",
		cache:     newTokenCache(),
	}
}

func (c *Client) tokens() *tokenCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = newTokenCache()
	}
	return c.cache
}

func (c *Client) tokenPath() string {
	if c.TokenPath == "" {
		return "/oauth2/token"
	}
	return c.TokenPath
}
