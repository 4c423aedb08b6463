package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
)

const httpTimeout = 15 * time.Second

// MaxBodySize caps response bodies read by the client.
const MaxBodySize = 32 << 20

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrTooLarge is returned when a body exceeds MaxBodySize.
	ErrTooLarge = errors.New("response body too large")
)

// NewHTTPClient creates an HTTP client with a standard timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Client provides shared HTTP functionality for catalog and image fetches.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	attempts  int
	delay     time.Duration
}

// NewClient creates a Client that caches bodies in c under namespace for
// ttl. A nil cache disables caching. Headers are applied to all requests.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		attempts:  3,
		delay:     time.Second,
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithRetry sets the attempt count and initial backoff delay.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts, c.delay = attempts, delay
	return c
}

// Cached returns the body for key from the cache, or runs fetch with retry
// and caches its result. If refresh is true the cache read is skipped.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	ck := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, ck); ok {
			observability.Cache().OnCacheHit(ctx, "http")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}
	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var ferr error
		data, ferr = fetch()
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, ck, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
	return data, nil
}

// Get fetches url through the cache and JSON-decodes the body into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	data, err := c.Cached(ctx, url, false, func() ([]byte, error) {
		return c.GetBytes(ctx, url)
	})
	if err != nil {
		return err
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Fetch fetches url bytes with retry but without caching.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var ferr error
		data, ferr = c.GetBytes(ctx, url)
		return ferr
	})
	return data, err
}

// GetBytes performs a single GET and returns the body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	if len(data) > MaxBodySize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
