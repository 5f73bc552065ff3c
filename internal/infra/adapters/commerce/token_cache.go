package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/domain/ports/repository"
	"telegram-fish-shop/internal/infra/metrics"
)

var _ adapter.TokenSource = (*TokenCache)(nil)

// TokenKey is the credential store key holding the current bearer token.
const TokenKey = "commerce:access_token"

// TokenCache is the process-wide bearer token holder. Reads and probes run
// concurrently; only the exchange path is serialized.
type TokenCache struct {
	baseURL      string
	probePath    string
	clientID     string
	clientSecret string
	http         *http.Client
	store        repository.CredentialStore
	log          *zerolog.Logger

	mu sync.Mutex // guards the exchange path

	lastMu sync.Mutex
	last   string // last token seen or issued; used while the store is unreachable
}

func NewTokenCache(cfg config.CommerceConfig, store repository.CredentialStore, httpClient *http.Client, logger *zerolog.Logger) *TokenCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	l := logger.With().Str("component", "TokenCache").Logger()
	return &TokenCache{
		baseURL:      cfg.BaseURL,
		probePath:    cfg.ProbePath,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         httpClient,
		store:        store,
		log:          &l,
	}
}

// GetToken returns the cached token if the backend still accepts it and
// exchanges the client credentials for a new one otherwise.
func (t *TokenCache) GetToken(ctx context.Context) (string, error) {
	token := t.cached(ctx)
	if token != "" {
		valid, err := t.probe(ctx, token)
		if err != nil {
			return "", err
		}
		if valid {
			return token, nil
		}
	}
	return t.refresh(ctx, token)
}

func (t *TokenCache) cached(ctx context.Context) string {
	token, ok, err := t.store.Get(ctx, TokenKey)
	if err != nil {
		t.log.Warn().Err(err).Msg("credential store read failed; using the in-memory token")
		return t.lastGood()
	}
	if !ok || token == "" {
		return t.lastGood()
	}
	t.remember(token)
	return token
}

func (t *TokenCache) lastGood() string {
	t.lastMu.Lock()
	defer t.lastMu.Unlock()
	return t.last
}

func (t *TokenCache) remember(token string) {
	t.lastMu.Lock()
	t.last = token
	t.lastMu.Unlock()
}

// refresh exchanges credentials unless another caller already replaced stale.
func (t *TokenCache) refresh(ctx context.Context, stale string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur := t.cached(ctx); cur != "" && cur != stale {
		metrics.IncTokenRefresh("reused")
		return cur, nil
	}

	token, err := t.exchange(ctx)
	if err != nil {
		metrics.IncTokenRefresh("rejected")
		t.log.Error().Err(err).Msg("credential exchange failed")
		return "", err
	}
	metrics.IncTokenRefresh("ok")
	t.log.Info().Msg("new access token issued")
	t.remember(token)

	if err := t.store.Set(ctx, TokenKey, token); err != nil {
		t.log.Warn().Err(err).Msg("credential store write failed; token kept in memory")
	}
	return token, nil
}

// probe reports false only on 401; any other answer means the token is usable.
func (t *TokenCache) probe(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+t.probePath, nil)
	if err != nil {
		return false, &domain.BackendError{Op: "probe_token", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		metrics.ObserveCommerceRequest("probe_token", 0, time.Since(start))
		return false, &domain.BackendError{Op: "probe_token", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	metrics.ObserveCommerceRequest("probe_token", resp.StatusCode, time.Since(start))

	return resp.StatusCode != http.StatusUnauthorized, nil
}

func (t *TokenCache) exchange(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {t.clientID},
		"client_secret": {t.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		metrics.ObserveCommerceRequest("exchange_token", 0, time.Since(start))
		return "", &domain.AuthError{Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveCommerceRequest("exchange_token", resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &domain.AuthError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.AuthError{Status: resp.StatusCode, Body: truncate(b, maxErrorBody)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", &domain.AuthError{Status: resp.StatusCode, Err: err}
	}
	if out.AccessToken == "" {
		return "", &domain.AuthError{Status: resp.StatusCode, Err: errors.New("empty access_token in response")}
	}
	return out.AccessToken, nil
}
