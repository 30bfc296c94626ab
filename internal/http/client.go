// Package http provides the verb-based transport used by the activerest
// query layer. It wraps hashicorp/go-retryablehttp with a base URL, default
// headers, and optional debug logging.
//
// The transport deliberately does not turn HTTP status codes into errors:
// any response that made it back from the server is handed to the caller
// for interpretation. Only transport-level faults (dial, DNS, timeout)
// produce an error.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/activerest-io/activerest/internal/constants"
)

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Header returns the most relevant value for a header, case-insensitively.
func (r *Response) Header(name string) string {
	return r.Headers.Get(name)
}

// ContentType returns the declared content type without parameters.
func (r *Response) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}

	return strings.TrimSpace(ct)
}

// Client is a verb-based HTTP client bound to a base URL.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	headers    map[string]string
	userAgent  string
	logger     Logger
	debug      bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables debug logging of requests and responses.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithDefaultHeaders sets headers applied to every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithRetryConfig tunes retry behavior for transport faults.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// NewClient creates a new transport client. The base URL may be empty when
// callers always pass absolute request paths.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 0
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	// Status codes are classified by the response interpreter upstream;
	// only transport faults are candidates for a retry here.
	retryClient.CheckRetry = func(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}

		return false, nil
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient,
		headers:    make(map[string]string),
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// resolveURL turns a request path into a full URL. Absolute paths pass
// through untouched.
func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// Do executes the request and returns the response. The returned error is
// non-nil only for request construction and transport faults.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.resolveURL(req.Path)
	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}

		fullURL += separator + req.Query.Encode()
	}

	var rawBody []byte

	if req.Body != nil {
		switch body := req.Body.(type) {
		case []byte:
			rawBody = body
		default:
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}

			rawBody = encoded
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	if rawBody != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("http request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("http response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
		})
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodHead, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request, optionally with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodDelete, Path: path, Body: body})
}
