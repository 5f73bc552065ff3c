//go:build !integration

package commerce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain"
)

// authBackend accepts only the token it issued last.
type authBackend struct {
	issued    atomic.Value // string
	exchanges atomic.Int32
	reject    bool
	delay     time.Duration
}

func (b *authBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/carts/abc", func(w http.ResponseWriter, r *http.Request) {
		cur, _ := b.issued.Load().(string)
		if cur == "" || r.Header.Get("Authorization") != "Bearer "+cur {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if b.reject || r.PostForm.Get("client_secret") != "secret" || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"title":"Unauthorized"}]}`))
			return
		}
		n := b.exchanges.Add(1)
		time.Sleep(b.delay)
		tok := "token-" + string(rune('0'+n))
		b.issued.Store(tok)
		_, _ = w.Write([]byte(`{"access_token":"` + tok + `","token_type":"Bearer","expires_in":3600}`))
	})
	return mux
}

func newTestTokenCache(srv *httptest.Server, store *memCredentialStore) *TokenCache {
	cfg := config.CommerceConfig{
		BaseURL:      srv.URL,
		ProbePath:    "/v2/carts/abc",
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	}
	return NewTokenCache(cfg, store, srv.Client(), newTestLogger())
}

func TestTokenCache_GetToken(t *testing.T) {
	ctx := context.Background()

	t.Run("should reuse a cached token the backend accepts", func(t *testing.T) {
		backend := &authBackend{}
		backend.issued.Store("good")
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(map[string]string{TokenKey: "good"})

		tok, err := newTestTokenCache(srv, store).GetToken(ctx)

		require.NoError(t, err)
		require.Equal(t, "good", tok)
		require.Zero(t, backend.exchanges.Load(), "no exchange expected for a valid token")
	})

	t.Run("should exchange and store a new token when the probe says unauthorized", func(t *testing.T) {
		backend := &authBackend{}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(map[string]string{TokenKey: "expired"})

		tok, err := newTestTokenCache(srv, store).GetToken(ctx)

		require.NoError(t, err)
		require.Equal(t, "token-1", tok)
		stored, ok, _ := store.Get(ctx, TokenKey)
		require.True(t, ok)
		require.Equal(t, "token-1", stored)
	})

	t.Run("should exchange when nothing is cached", func(t *testing.T) {
		backend := &authBackend{}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()

		tok, err := newTestTokenCache(srv, newMemCredentialStore(nil)).GetToken(ctx)

		require.NoError(t, err)
		require.Equal(t, "token-1", tok)
	})

	t.Run("should return AuthError when the exchange is rejected", func(t *testing.T) {
		backend := &authBackend{reject: true}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()

		_, err := newTestTokenCache(srv, newMemCredentialStore(nil)).GetToken(ctx)

		var authErr *domain.AuthError
		require.True(t, errors.As(err, &authErr), "expected AuthError, got %v", err)
		require.Equal(t, http.StatusUnauthorized, authErr.Status)
		require.Contains(t, authErr.Body, "Unauthorized")
	})

	t.Run("should exchange once when many sessions find the token stale", func(t *testing.T) {
		backend := &authBackend{delay: 50 * time.Millisecond}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(map[string]string{TokenKey: "expired"})
		cache := newTestTokenCache(srv, store)

		const callers = 16
		var wg sync.WaitGroup
		tokens := make([]string, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tokens[i], errs[i] = cache.GetToken(ctx)
			}(i)
		}
		wg.Wait()

		require.EqualValues(t, 1, backend.exchanges.Load())
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			require.Equal(t, "token-1", tokens[i])
		}
	})

	t.Run("should keep the last good token while the store is down", func(t *testing.T) {
		// Arrange
		backend := &authBackend{}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(nil)
		cache := newTestTokenCache(srv, store)
		first, err := cache.GetToken(ctx)
		require.NoError(t, err)

		// Act
		store.GetErr = errors.New("redis down")
		store.SetErr = errors.New("redis down")
		second, err := cache.GetToken(ctx)
		require.NoError(t, err)
		third, err := cache.GetToken(ctx)
		require.NoError(t, err)

		// Assert
		require.Equal(t, "token-1", first)
		require.Equal(t, first, second)
		require.Equal(t, first, third)
		require.EqualValues(t, 1, backend.exchanges.Load())
	})

	t.Run("should exchange once when the store was never reachable", func(t *testing.T) {
		backend := &authBackend{}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(nil)
		store.GetErr = errors.New("redis down")
		store.SetErr = errors.New("redis down")
		cache := newTestTokenCache(srv, store)

		for i := 0; i < 3; i++ {
			tok, err := cache.GetToken(ctx)
			require.NoError(t, err)
			require.Equal(t, "token-1", tok)
		}

		require.EqualValues(t, 1, backend.exchanges.Load())
	})

	t.Run("should replace the in-memory token once the backend rejects it", func(t *testing.T) {
		backend := &authBackend{}
		srv := httptest.NewServer(backend.handler(t))
		defer srv.Close()
		store := newMemCredentialStore(nil)
		store.GetErr = errors.New("redis down")
		cache := newTestTokenCache(srv, store)
		_, err := cache.GetToken(ctx)
		require.NoError(t, err)

		backend.issued.Store("rotated-elsewhere")
		tok, err := cache.GetToken(ctx)

		require.NoError(t, err)
		require.Equal(t, "token-2", tok)
		require.EqualValues(t, 2, backend.exchanges.Load())
	})
}
