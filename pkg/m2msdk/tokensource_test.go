package m2msdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())

		if r.PostForm.Get("client_secret") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"client authentication failed"}`))
			return
		}

		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "token-" + string(rune('0'+n)),
			TokenType:   "Bearer",
			ExpiresIn:   100,
			Scope:       r.PostForm.Get("scope"),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenSource_CachesUntilNinetyPercent(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	client := NewClient(srv.URL)

	now := time.Now()
	ts := client.TokenSource("svc", "s3cret", []string{"customers:read"})
	ts.now = func() time.Time { return now }

	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok)

	now = now.Add(89 * time.Second)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-1", tok, "still within 90% of lifetime")
	require.EqualValues(t, 1, calls.Load())

	now = now.Add(time.Second)
	tok, err = ts.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-2", tok)
	require.EqualValues(t, 2, calls.Load())
}

func TestTokenSource_SharedPerCredentials(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)
	client := NewClient(srv.URL)

	a := client.TokenSource("svc", "s3cret", []string{"customers:read"})
	b := client.TokenSource("svc", "s3cret", []string{"customers:read"})
	other := client.TokenSource("svc", "s3cret", []string{"customers:write"})

	_, err := a.Token(context.Background())
	require.NoError(t, err)
	_, err = b.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	_, err = other.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	a.Invalidate()
	_, err = b.Token(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
}

func TestTokenSource_SlowFetchDoesNotBlockOtherCredentials(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("client_id") == "slow" {
			close(started)
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "token-" + r.PostForm.Get("client_id"),
			TokenType:   "Bearer",
			ExpiresIn:   100,
		})
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	client := NewClient(srv.URL)
	fast := client.TokenSource("fast", "s3cret", nil)
	slow := client.TokenSource("slow", "s3cret", nil)

	tok, err := fast.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token-fast", tok)

	slowDone := make(chan error, 1)
	go func() {
		_, err := slow.Token(context.Background())
		slowDone <- err
	}()
	<-started

	fastDone := make(chan string, 1)
	go func() {
		tok, _ := fast.Token(context.Background())
		fastDone <- tok
	}()

	select {
	case tok := <-fastDone:
		require.Equal(t, "token-fast", tok)
	case <-time.After(time.Second):
		t.Fatal("cached token blocked behind another credential's fetch")
	}

	close(release)
	require.NoError(t, <-slowDone)
}

func TestTokenSource_Error(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls)

	ts := NewClient(srv.URL).TokenSource("svc", "wrong", nil)
	_, err := ts.Token(context.Background())

	var oe *OAuth2Error
	require.ErrorAs(t, err, &oe)
	require.Equal(t, http.StatusUnauthorized, oe.StatusCode)
	require.Equal(t, ErrorCodeInvalidClient, oe.Code)
}

func TestCacheKeyDoesNotContainSecret(t *testing.T) {
	key := cacheKey("svc", "s3cret", nil)
	require.NotContains(t, key, "s3cret")
	require.Len(t, key, 43)
	require.NotEqual(t, key, cacheKey("svc", "other", nil))
}
