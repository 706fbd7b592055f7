// Package rest implements the rate-limit-aware request dispatcher for the
// Accord REST API.
//
// Resource builders hand every outgoing call to (*Client).Request. The
// dispatcher resolves the call onto a rate limit bucket, serializes execution
// within that bucket in submission order, learns quota state from response
// headers, and retries transient failures with backoff. Paths and bodies are
// opaque to it beyond the bucket keying computation.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/accordhq/accord/internal/rest/ratelimit"
	"github.com/accordhq/accord/internal/rest/route"
)

const defaultBaseURL = "https://api.accord.chat/v1"

// Client dispatches requests against the Accord REST API.
//
// The zero value is not usable; construct with New and adjust exported fields
// before the first call. Limiter is owned by the client instance, never
// shared process-wide, so clients with different credentials do not interfere.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	Token     string
	UserAgent string

	Limiter  *ratelimit.Manager
	Resolver *route.Resolver
	Retry    RetryPolicy

	// Pace throttles outgoing dispatch across all buckets when set.
	Pace *rate.Limiter

	// Inflight caps simultaneous in-flight requests across all buckets
	// when set, bounding fan-out while many distinct buckets are active.
	Inflight *semaphore.Weighted

	Logger *zap.Logger
	Clock  func() time.Time

	seq atomic.Uint64
}

// New returns a client with default transport, retry policy, and an empty
// bucket state store.
func New(token string) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		BaseURL:   defaultBaseURL,
		Token:     token,
		UserAgent: "accord-go",
		Limiter:   ratelimit.NewManager(),
		Resolver:  route.NewResolver(nil),
		Retry:     DefaultRetryPolicy(),
		Logger:    zap.NewNop(),
	}
}

type rateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
	Code       int     `json:"code"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Request executes one API call, honoring bucket and global rate limits.
//
// Requests to the same bucket dispatch strictly in submission order; requests
// on distinct buckets run independently. Retries are invisible to the caller
// beyond latency. Cancellation or deadline expiry removes the request from
// its queue (or aborts it in flight) without disturbing other queued
// requests.
func (c *Client) Request(ctx context.Context, req *Request, opts ...RequestOpt) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, opt := range opts {
		opt(req)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Deadline)
		defer cancel()
	}

	req.seq = c.seq.Add(1)

	key, err := c.resolver().Resolve(req.Method, req.Template, req.Params)
	if err != nil {
		return nil, err
	}
	body, err := encodeBody(req)
	if err != nil {
		return nil, err
	}
	reqURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	bucket := c.limiter().Bucket(key.Value)
	if err := bucket.Acquire(ctx, false); err != nil {
		return nil, err
	}
	// From here the in-flight slot is held; every return path must release
	// it exactly once. Retries keep the slot, which is what places them at
	// the front of the bucket's queue.
	return c.dispatch(ctx, req, key, bucket, reqURL, body)
}

func (c *Client) dispatch(ctx context.Context, req *Request, key route.Key, bucket *ratelimit.Bucket, reqURL string, body *encodedBody) (*Response, error) {
	logger := c.logger().With(
		zap.String("request_id", req.ID),
		zap.Uint64("seq", req.seq),
		zap.String("method", req.Method),
		zap.String("route", key.Value),
	)
	failures := 0

	for {
		if err := c.limiter().WaitGlobal(ctx); err != nil {
			bucket.Release()
			return nil, err
		}
		if c.Pace != nil {
			if err := c.Pace.Wait(ctx); err != nil {
				bucket.Release()
				return nil, err
			}
		}

		req.attempt++
		logger.Debug("dispatching request", zap.Int("attempt", req.attempt))

		resp, raw, err := c.do(ctx, req, reqURL, body)
		if err != nil {
			if ctx.Err() != nil {
				bucket.Release()
				return nil, ctx.Err()
			}
			failures++
			if req.NoRetry || failures >= c.Retry.maxAttempts() {
				bucket.Release()
				return nil, &TransportError{Attempts: failures, Err: err}
			}
			if err := c.backoff(ctx, bucket, logger, failures, err.Error()); err != nil {
				return nil, err
			}
			continue
		}

		var hdr ratelimit.Headers
		var parseErr error
		if resp.StatusCode < 300 {
			hdr, parseErr = c.limiter().Update(key.Value, key.Major, resp.Header)
		} else {
			hdr = c.limiter().Observe(key.Value, key.Major, resp.Header)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if parseErr != nil {
				logger.Warn("rate limit headers unparseable on success",
					zap.Error(&ProtocolError{Reason: "rate limit headers", Err: parseErr}))
			}
			bucket.Release()
			return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter, global, perr := rateLimitDelay(hdr, raw)
			if perr != nil {
				bucket.Release()
				return nil, perr
			}
			now := c.now()
			if global {
				c.limiter().SetGlobal(now.Add(retryAfter))
			} else {
				c.limiter().Freeze(key.Value, retryAfter)
			}
			if req.NoRetry {
				bucket.Release()
				return nil, &RateLimitError{RetryAfter: retryAfter, Global: global, Bucket: hdr.Bucket}
			}
			logger.Warn("rate limited, requeueing at front of bucket",
				zap.Bool("global", global),
				zap.Duration("retry_after", retryAfter))
			if err := bucket.Wait(ctx); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= 500:
			failures++
			if req.NoRetry || failures >= c.Retry.maxAttempts() {
				bucket.Release()
				return nil, &ServerError{Status: resp.StatusCode, Attempts: failures, Raw: raw}
			}
			if err := c.backoff(ctx, bucket, logger, failures, resp.Status); err != nil {
				return nil, err
			}
			continue

		default:
			bucket.Release()
			apiErr := &APIError{Status: resp.StatusCode, Raw: raw}
			var parsed apiErrorBody
			if json.Unmarshal(raw, &parsed) == nil {
				apiErr.Code = parsed.Code
				apiErr.Message = parsed.Message
			}
			return nil, apiErr
		}
	}
}

// do performs one network attempt.
func (c *Client) do(ctx context.Context, req *Request, reqURL string, body *encodedBody) (*http.Response, []byte, error) {
	var reader io.ReadCloser
	if body != nil {
		var err error
		reader, err = body.open()
		if err != nil {
			return nil, nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", body.contentType)
	}
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bot "+c.Token)
	}
	httpReq.Header.Set("User-Agent", c.userAgent())
	for key, values := range req.Header {
		httpReq.Header[key] = values
	}

	if c.Inflight != nil {
		if err := c.Inflight.Acquire(ctx, 1); err != nil {
			return nil, nil, err
		}
		defer c.Inflight.Release(1)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, raw, nil
}

// backoff sleeps before a retry. The bucket slot stays held so later
// submissions on the same bucket cannot overtake the retried request.
func (c *Client) backoff(ctx context.Context, bucket *ratelimit.Bucket, logger *zap.Logger, failures int, cause string) error {
	delay := c.Retry.Delay(failures)
	logger.Warn("retrying after transient failure",
		zap.Int("failures", failures),
		zap.Duration("backoff", delay),
		zap.String("cause", cause))

	timer := time.NewTimer(delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		bucket.Release()
		return ctx.Err()
	}
	if err := bucket.Wait(ctx); err != nil {
		return err
	}
	return nil
}

// rateLimitDelay derives the wait for a 429 from headers, falling back to the
// response body. A 429 with no usable delay is a protocol anomaly.
func rateLimitDelay(hdr ratelimit.Headers, raw []byte) (time.Duration, bool, error) {
	retryAfter := hdr.RetryAfter
	global := hdr.Global || strings.EqualFold(hdr.Scope, ratelimit.ScopeGlobal)

	var body rateLimitBody
	if json.Unmarshal(raw, &body) == nil {
		if body.Global {
			global = true
		}
		if fromBody := time.Duration(body.RetryAfter * float64(time.Second)); fromBody > retryAfter {
			retryAfter = fromBody
		}
	}
	if retryAfter <= 0 && hdr.HasState {
		retryAfter = hdr.ResetAfter
	}
	if retryAfter <= 0 {
		return 0, global, &ProtocolError{Reason: "429 without usable retry-after"}
	}
	return retryAfter, global, nil
}

func (c *Client) buildURL(req *Request) (string, error) {
	path, err := route.Expand(req.Template, req.Params)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(c.baseURL(), "/")
	u := base + path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u, nil
}

func (c *Client) baseURL() string {
	if c != nil && strings.TrimSpace(c.BaseURL) != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) userAgent() string {
	if c != nil && c.UserAgent != "" {
		return c.UserAgent
	}
	return "accord-go"
}

func (c *Client) httpClient() *http.Client {
	if c != nil && c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) limiter() *ratelimit.Manager {
	if c.Limiter == nil {
		c.Limiter = ratelimit.NewManager()
	}
	return c.Limiter
}

func (c *Client) resolver() *route.Resolver {
	if c.Resolver == nil {
		c.Resolver = route.NewResolver(nil)
	}
	return c.Resolver
}

func (c *Client) logger() *zap.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

func (c *Client) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
