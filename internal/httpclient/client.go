// Package httpclient provides the JSON HTTP client shared by the platform integrations
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (10MB)
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "eventsync/1.0"
)

// Client is an interface for HTTP operations
type Client interface {
	// Do sends body (JSON encoded, may be nil) with the given method.
	// A non-2xx response is returned together with an *HTTPError carrying its body.
	Do(ctx context.Context, method, url string, body any) (*Response, error)
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *DefaultClient) {
		c.userAgent = ua
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *DefaultClient) {
		c.headers.Set(key, value)
	}
}

// WithBearerToken authenticates every request with a static OAuth2 bearer token
func WithBearerToken(token string) Option {
	return func(c *DefaultClient) {
		c.client.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.client.Transport,
		}
	}
}

// WithTransport replaces the underlying round tripper (applied before WithBearerToken wraps it)
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.client.Transport = rt
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	headers   http.Header
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout:   timeout,
		userAgent: UserAgent,
		headers:   http.Header{},
	}
	c.headers.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with an optional JSON body
func (c *DefaultClient) Do(ctx context.Context, method, url string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Execute request
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Check Content-Length header if available
	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// Use LimitReader to prevent reading more than MaxResponseSize
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1) // +1 to detect if limit exceeded
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    resp.Status,
			Body:       data,
		}
	}
	return out, nil
}
