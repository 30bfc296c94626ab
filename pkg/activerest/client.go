package activerest

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/activerest-io/activerest/internal/constants"
	transport "github.com/activerest-io/activerest/internal/http"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client.
//
// Retry settings apply to transport faults only; HTTP status codes are
// never retried, they are classified by the response interpreter.
type Config struct {
	// BaseURL: default API root for schemas that do not carry their own
	// APIURL. Optional when every Schema sets APIURL.
	BaseURL string

	// DefaultHeaders are sent with every request.
	DefaultHeaders map[string]string

	// APIToken, when set, is sent as a static Bearer token.
	APIToken string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// RetryMax is the maximum number of retries for transport faults.
	// Zero disables retries.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug enables request/response logging when a Logger is provided.
	Debug bool

	// Logger is an optional structured logger.
	Logger Logger

	// Cache configures the optional GET response cache. Nil disables
	// caching entirely.
	Cache *CacheConfig
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, is.URL),
	)
}

// Client binds the transport, the codec registry, the interceptor chain,
// and the optional response cache. Queries are minted against it with
// NewQuery or ModelQuery.
type Client struct {
	http   *transport.Client
	codecs *CodecRegistry
	cache  *CacheManager
	chain  *InterceptorChain
	logger Logger
}

// New creates a new Client from configuration.
func New(config *Config) (*Client, error) {
	if config == nil {
		config = &Config{}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	var httpOpts []transport.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, transport.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, transport.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, transport.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, transport.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	chain := NewInterceptorChain()

	if len(config.DefaultHeaders) > 0 {
		chain.AddRequestInterceptor(HeaderInterceptor(config.DefaultHeaders))
	}

	if config.APIToken != "" {
		token := config.APIToken
		chain.AddRequestInterceptor(AuthorizationInterceptor(func(context.Context) (string, error) {
			return token, nil
		}))
	}

	if config.Debug && config.Logger != nil {
		chain.AddRequestInterceptor(LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(LoggingResponseInterceptor(config.Logger))
	}

	var cacheManager *CacheManager

	if config.Cache != nil && config.Cache.Type != CacheTypeNone {
		cache, err := NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, err
		}

		cacheManager = NewCacheManager(cache, nil)
	}

	return &Client{
		http:   transport.NewClient(config.BaseURL, httpOpts...),
		codecs: NewCodecRegistry(),
		cache:  cacheManager,
		chain:  chain,
		logger: config.Logger,
	}, nil
}

// Codecs returns the codec registry, allowing custom content types to be
// registered.
func (c *Client) Codecs() *CodecRegistry {
	return c.codecs
}

// Interceptors returns the interceptor chain.
func (c *Client) Interceptors() *InterceptorChain {
	return c.chain
}

// Cache returns the cache manager, or nil when caching is disabled.
func (c *Client) Cache() *CacheManager {
	return c.cache
}

// BaseURL returns the configured default API root.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// do executes one API request: request interceptors, cache consultation
// for cacheable verbs, the transport call, cache fill, and response
// interceptors. HTTP statuses pass through untouched; a transport fault
// comes back as a TransportError carrying base.
func (c *Client) do(ctx context.Context, base string, req *Request) (*Response, error) {
	if err := c.chain.ExecuteRequestInterceptors(ctx, req); err != nil {
		return nil, err
	}

	cacheKey := ""

	if c.cache != nil && c.cache.Policy().CacheableRequest(req.Method) {
		cacheKey = c.cache.GetCacheKey(req.Method, req.URL, req.Query)

		if resp, err := c.cache.GetResponse(ctx, cacheKey); err == nil {
			return resp, nil
		}
	}

	httpResp, err := c.http.Do(ctx, &transport.Request{
		Method:  req.Method,
		Path:    req.URL,
		Query:   req.Query,
		Body:    req.Body,
		Headers: req.Headers,
	})
	if err != nil {
		return nil, &TransportError{BaseURL: base, Err: err}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Headers,
		Body:       httpResp.Body,
	}

	if cacheKey != "" && c.cache.Policy().ShouldCache(req.Method, resp.StatusCode) {
		_ = c.cache.SetResponse(ctx, cacheKey, resp)
	}

	if err := c.chain.ExecuteResponseInterceptors(ctx, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// loggerAdapter adapts activerest.Logger to the transport logger.
type loggerAdapter struct {
	logger Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
