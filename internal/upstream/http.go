package upstream

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/fairyhunter13/product-catalog-service/internal/model"
	"github.com/fairyhunter13/product-catalog-service/internal/obs"
)

// maxBodyBytes caps the upstream document size.
const maxBodyBytes = 16 << 20

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	URL           string
	ProductsPath  string
	Timeout       time.Duration
	MaxRetries    uint
	RetryInterval time.Duration
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// HTTPSource fetches products from a JSON HTTP endpoint, retrying
// transport failures and 5xx/429 responses with exponential backoff.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPClient builds the client used for upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: timeout,
		},
	}
}

// NewHTTPSource constructs an HTTPSource. A nil client selects NewHTTPClient.
func NewHTTPSource(cfg HTTPConfig, client *http.Client) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}
	return &HTTPSource{cfg: cfg, client: client}
}

// Name identifies the source in logs and metrics.
func (s *HTTPSource) Name() string { return "http" }

// Fetch downloads and decodes the product list.
func (s *HTTPSource) Fetch(ctx context.Context) ([]model.Product, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval

	return backoff.Retry(ctx, func() ([]model.Product, error) {
		return s.fetchOnce(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.cfg.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			obs.Logger.Warn().Err(err).Str("url", s.cfg.URL).Dur("retry_in", next).Msg("upstream_fetch_retry")
		}),
	)
}

func (s *HTTPSource) fetchOnce(ctx context.Context) ([]model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", s.cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{URL: s.cfg.URL, Status: resp.StatusCode}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	products, err := Decode(body, s.cfg.ProductsPath)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return products, nil
}
