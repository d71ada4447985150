// Package transport performs upstream HTTP requests under a process-wide rate
// limit and a per-operation retry policy.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fli.dev/internal/logging"
)

const (
	DefaultRateLimit   = 10
	DefaultRateWindow  = time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 10 * time.Second

	// browser-like agent; the upstream rejects obviously scripted clients
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config configures a Session. A negative RateLimit disables rate limiting.
type Config struct {
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Session owns the long-lived HTTP client and the shared rate limiter. Build
// one per process and derive a Client for each retry policy.
type Session struct {
	httpClient *http.Client
	limiter    *Limiter
	userAgent  string
	logger     *slog.Logger
}

// NewSession builds a session, filling zero Config fields with defaults.
func NewSession(cfg Config, logger *slog.Logger) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Session{
		httpClient: httpClient,
		limiter:    NewLimiter(cfg.RateLimit, cfg.RateWindow),
		userAgent:  cfg.UserAgent,
		logger:     logging.Component(logger, "transport"),
	}
}

// Client binds s to a retry policy. Clients from one session share its
// connection pool and rate limiter.
func (s *Session) Client(policy RetryPolicy) *Client {
	return &Client{session: s, policy: policy.withDefaults()}
}

// CloseIdleConnections releases pooled connections.
func (s *Session) CloseIdleConnections() {
	s.httpClient.CloseIdleConnections()
}

// RetryPolicy bounds attempts and the exponential backoff between them.
type RetryPolicy struct {
	Op          string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// FlightSearchPolicy retries a flight search up to three attempts.
func FlightSearchPolicy() RetryPolicy {
	return RetryPolicy{Op: "flight_search", MaxAttempts: 3, BaseDelay: DefaultBackoffBase, MaxDelay: DefaultBackoffMax}
}

// CalendarSearchPolicy makes a single attempt; callers re-issue calendar
// queries themselves.
func CalendarSearchPolicy() RetryPolicy {
	return RetryPolicy{Op: "calendar_search", MaxAttempts: 1, BaseDelay: DefaultBackoffBase, MaxDelay: DefaultBackoffMax}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Op == "" {
		p.Op = "request"
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultBackoffMax
	}
	return p
}

// Backoff is the delay after the given failed attempt (1-based):
// BaseDelay doubled per attempt, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues requests through its session under one retry policy.
type Client struct {
	session *Session
	policy  RetryPolicy
}

// Policy returns the client's effective retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Post sends body with the given content type.
func (c *Client) Post(ctx context.Context, url, contentType, body string) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, contentType, body)
}

// Get fetches url.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, "", "")
}

func (c *Client) do(ctx context.Context, method, url, contentType, body string) (*Response, error) {
	logger := c.session.logger.With(slog.String("op", c.policy.Op), slog.String("url", url))

	var lastErr error
	attempts := 0
	for attempts < c.policy.MaxAttempts {
		attempts++
		resp, err := c.attempt(ctx, logger, method, url, contentType, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		logger.Warn("transport_attempt_failed",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", c.policy.MaxAttempts),
			slog.String("error", err.Error()))

		if ctx.Err() != nil || attempts == c.policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, c.policy.Backoff(attempts)); err != nil {
			lastErr = err
			break
		}
	}

	return nil, &TransportError{
		Op:       c.policy.Op,
		Method:   method,
		URL:      url,
		Attempts: attempts,
		Err:      lastErr,
	}
}

func (c *Client) attempt(ctx context.Context, logger *slog.Logger, method, url, contentType, body string) (*Response, error) {
	waited, err := c.session.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if waited > 0 {
		logger.Debug("transport_rate_limited", slog.Duration("waited", waited))
	}

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.session.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.session.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, logger, "http_response_body")

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet(b)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
