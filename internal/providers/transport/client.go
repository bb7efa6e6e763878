// Package transport provides the shared HTTP plumbing for provider
// adapters: timeouts, common headers, query-parameter API keys, and JSON
// decoding with consistent error mapping.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gamedex/gamedex/pkg/errors"
)

// DefaultTimeout is the default timeout for provider HTTP requests.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read for messages.
const maxErrorBody = 2048

// Client is a thin HTTP client for one provider.
type Client struct {
	http     *http.Client
	provider string // provider name for error attribution
	baseURL  string
	apiKey   string // applied as the "key" query parameter when set
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAPIKey sets the query-parameter API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient substitutes the underlying http.Client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a transport client for the named provider.
func New(provider, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		provider: provider,
		baseURL:  baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a GET against path with the given query parameters and
// decodes the JSON response into out. Non-2xx statuses map to APIError,
// so 429 and 5xx satisfy errors.Is checks for ErrRateLimited and
// ErrProviderUnavailable.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", endpoint, err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{
			Provider: c.provider,
			Message:  "request failed",
			Endpoint: path,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &errors.APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", c.provider+path, err)
	}
	return nil
}
