// Package httputil provides the HTTP client used to read upstream feeds.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout applies when ClientConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes bounds successful response bodies.
const DefaultMaxBodyBytes int64 = 32 << 20

// ErrBodyTooLarge is returned when a body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Client issues GET requests relative to a base URL.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxBodyBytes int64
	userAgent    string
}

// ClientConfig configures the client.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client
}

// NewClient creates a client with defaults for zero fields.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "data-harmony/1.0"
	}

	return &Client{
		httpClient:   hc,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxBodyBytes: maxBody,
		userAgent:    ua,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a GET of baseURL+path. The caller closes the body.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", req.URL.Redacted())
	}
	return resp, nil
}

// GetBytes performs a GET and returns the body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return ReadResponse(resp, c.maxBodyBytes)
}

// ReadResponse closes resp.Body and returns its content. Non-2xx statuses
// become errors carrying a truncated copy of the body.
func ReadResponse(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, truncated, err := ReadAllWithLimit(resp.Body, 64<<10)
		if err != nil {
			return nil, errors.Wrap(err, "read error response body")
		}
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, msg)
	}

	body, err := ReadAllStrict(resp.Body, limit)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	return body, nil
}

// ReadAllWithLimit reads at most limit bytes and reports whether more data
// was available.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads the whole stream and fails with ErrBodyTooLarge when
// it exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, errors.Wrapf(ErrBodyTooLarge, "limit %d bytes", limit)
	}
	return body, nil
}
