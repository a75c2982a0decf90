package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
)

// Config controls the shared session used by every probe in a run.
type Config struct {
	// BaseURL is the target URL including the API prefix; request paths are appended to it.
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
	PoolSize  int
	UserAgent string
	// RateLimit paces sequential probe traffic in requests per second. Zero disables pacing.
	RateLimit float64
	Logger    *zap.SugaredLogger
}

// Request describes a single call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Header map[string]string
	// JSON is encoded as the request body when non-nil.
	JSON any
	// Raw is sent verbatim when non-nil and takes precedence over JSON.
	// An empty non-nil slice sends an empty body.
	Raw []byte
	// Timeout overrides the client default for this request.
	Timeout time.Duration
	// Unpaced requests bypass the rate limiter; burst probes use it.
	Unpaced bool
	// NoRetry sends the request exactly once even when its method is idempotent.
	NoRetry bool
}

// Response is the uniform outcome of a request. Err is set when no HTTP
// response was obtained, in which case StatusCode is 0.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Err        error
}

// Reachable reports whether the target answered with any HTTP status.
func (r Response) Reachable() bool {
	return r.Err == nil && r.StatusCode != 0
}

// Text returns the body as a string.
func (r Response) Text() string {
	return string(r.Body)
}

// HeaderValue returns the first value of the named header, or "" when unreachable.
func (r Response) HeaderValue(name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}

// DecodeJSON unmarshals the body into v.
func (r Response) DecodeJSON(v any) error {
	if !r.Reachable() {
		return fmt.Errorf("decode body: no response")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// Client is the HTTP facade shared by all probes of a run. It never returns
// an error to callers; transport failures are folded into Response.Err.
type Client struct {
	baseURL   string
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	userAgent string
	transport *http.Transport
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger
}

// New builds a Client with a connection pool of cfg.PoolSize connections.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = consts.DefaultRequestTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = consts.DefaultBackoff
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = consts.DefaultPoolSize
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must be >= 0, got %v", cfg.RateLimit)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		retries:   cfg.Retries,
		backoff:   cfg.Backoff,
		userAgent: cfg.UserAgent,
		transport: transport,
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// newRetryClient builds the session for one call. The timeout bounds each
// attempt including its body read; backoff waits only observe the caller's ctx.
func (c *Client) newRetryClient(timeout time.Duration, retries int) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: c.transport,
			Timeout:   timeout,
			// Probes inspect redirects themselves; never follow them.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Logger:       leveledLogger{logger: c.logger},
		RetryWaitMin: c.backoff,
		RetryWaitMax: c.backoff * 8,
		RetryMax:     retries,
		CheckRetry:   retryTransient,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// retryTransient retries connection errors and 502/503/504 only. 429 is an
// answer the probes need to see, so it is never retried.
func retryTransient(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues req and returns its outcome. It is safe for concurrent use.
func (c *Client) Do(ctx context.Context, req Request) Response {
	start := time.Now()
	resp := c.do(ctx, req)
	resp.Duration = time.Since(start)

	if resp.Err != nil {
		c.logger.Debugw("request failed",
			"method", req.Method, "path", req.Path, "error", resp.Err, "duration", resp.Duration)
	} else {
		c.logger.Debugw("request completed",
			"method", req.Method, "path", req.Path, "status", resp.StatusCode, "duration", resp.Duration)
	}
	return resp
}

func (c *Client) do(ctx context.Context, req Request) Response {
	if c.limiter != nil && !req.Unpaced {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body interface{}
	switch {
	case req.Raw != nil:
		body = req.Raw
	case req.JSON != nil:
		encoded, err := json.Marshal(req.JSON)
		if err != nil {
			return Response{Err: fmt.Errorf("encode json body: %w", err)}
		}
		body = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+req.Path, body)
	if err != nil {
		return Response{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	retries := 0
	if isIdempotent(method) && !req.NoRetry {
		retries = c.retries
	}

	httpResp, err := c.newRetryClient(timeout, retries).Do(httpReq)
	if err != nil {
		return Response{Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, consts.MaxResponseBytes))
	if err != nil {
		return Response{Err: fmt.Errorf("read body: %w", err)}
	}

	return Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       data,
	}
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, http.MethodTrace:
		return true
	}
	return false
}
