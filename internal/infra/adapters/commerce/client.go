// File: internal/infra/adapters/commerce/client.go
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/ports/adapter"
	"telegram-fish-shop/internal/infra/metrics"
)

var (
	_ adapter.CatalogGateway = (*Client)(nil)
	_ adapter.OrderGateway   = (*Client)(nil)
)

// maxBodyBytes caps JSON responses; images use maxImageBytes.
const (
	maxBodyBytes  = 4 << 20
	maxImageBytes = 20 << 20
	maxErrorBody  = 2048
)

// Client talks to the commerce backend REST API. Every call is single-shot.
type Client struct {
	baseURL   string
	priceBook string
	currency  string
	http      *http.Client
	tokens    adapter.TokenSource
	limiter   *rate.Limiter
	log       *zerolog.Logger
}

func NewClient(cfg config.CommerceConfig, tokens adapter.TokenSource, httpClient *http.Client, logger *zerolog.Logger) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("token source is nil")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid commerce base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	l := logger.With().Str("component", "CommerceClient").Logger()
	return &Client{
		baseURL:   cfg.BaseURL,
		priceBook: cfg.PriceBook,
		currency:  cfg.Currency,
		http:      httpClient,
		tokens:    tokens,
		limiter:   rate.NewLimiter(limit, burst),
		log:       &l,
	}, nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do sends one authorised request and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, rawURL string, payload any, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.BackendError{Op: op, Err: err}
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &domain.BackendError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveCommerceRequest(op, 0, time.Since(start))
		return nil, &domain.BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveCommerceRequest(op, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &domain.BackendError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("backend returned non-2xx")
		return nil, &domain.BackendError{Op: op, Status: resp.StatusCode, Body: truncate(b, maxErrorBody)}
	}
	return b, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, rawURL string, payload, out any) error {
	b, err := c.do(ctx, op, method, rawURL, payload, maxBodyBytes)
	if err != nil {
		return err
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &domain.BackendError{Op: op, Status: http.StatusOK, Body: truncate(b, maxErrorBody), Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
