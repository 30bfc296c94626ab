package activerest

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
)

// Request represents an outgoing API request as seen by interceptors.
// Mutating Headers affects the request that is actually sent.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response represents an API response as seen by interceptors and the
// response interpreter.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Header returns the most relevant value for a header, case-insensitively.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}

	return r.Headers.Get(name)
}

// ContentType returns the declared content type without parameters.
func (r *Response) ContentType() string {
	ct := r.Header("Content-Type")
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}

	return strings.TrimSpace(ct)
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a response is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates an empty interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors runs all request interceptors in order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors in order.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// LoggingInterceptor logs outgoing requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("api request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs received responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		logger.Debug("api response", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
		})

		return nil
	}
}

// HeaderInterceptor adds static headers to every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}

		for key, value := range headers {
			req.Headers[key] = value
		}

		return nil
	}
}

// AuthorizationInterceptor adds a bearer token to every request.
func AuthorizationInterceptor(tokenProvider func(context.Context) (string, error)) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		token, err := tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("failed to get authorization token: %w", err)
		}

		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}

		req.Headers["Authorization"] = "Bearer " + token

		return nil
	}
}
