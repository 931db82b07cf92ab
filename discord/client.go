package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// MaxAttempts is the total number of sends for one delivery.
	MaxAttempts = 4
	// DefaultBackoff is the delay before the first retry; it doubles after each.
	DefaultBackoff = time.Second

	maxResponseBody = 1024
)

var (
	// ErrEndpointNotConfigured is reported when no webhook URL is set.
	ErrEndpointNotConfigured = errors.New("discord webhook url is not configured")
	// ErrUnexpectedStatus is reported when every attempt got a non-2xx answer.
	ErrUnexpectedStatus = errors.New("unexpected discord status")
)

// Outcome is the result of one delivery call.
type Outcome struct {
	Success bool
	// StatusCode of the last attempt, 0 if no response was received.
	StatusCode int
	Attempts   int
	// Body holds the first bytes of the last non-2xx response.
	Body string
	Err  error
}

// Detail describes a failed outcome for callers and logs.
func (o Outcome) Detail() string {
	switch {
	case o.Success:
		return ""
	case o.StatusCode == 0 && o.Err != nil:
		return o.Err.Error()
	case o.Err != nil && !errors.Is(o.Err, ErrUnexpectedStatus):
		return fmt.Sprintf("discord responded %d: %s: %v", o.StatusCode, o.Body, o.Err)
	default:
		return fmt.Sprintf("discord responded %d: %s", o.StatusCode, o.Body)
	}
}

// RetryEvent describes a scheduled retry.
type RetryEvent struct {
	Attempt    int // the attempt about to be made
	Delay      time.Duration
	StatusCode int
	Err        error
}

type Client struct {
	http    *http.Client
	log     zerolog.Logger
	limiter *rate.Limiter
	backoff time.Duration
	onRetry func(RetryEvent)
	probe   string
}

type Option func(*Client)

// WithLogger sets the logger used for delivery and retry lines.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit caps sends per second; zero or less means unlimited.
func WithRateLimit(perSec float64) Option {
	return func(c *Client) {
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithBackoff overrides the base retry delay.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoff = base }
}

// WithRetryHook registers a callback invoked before every retry.
func WithRetryHook(fn func(RetryEvent)) Option {
	return func(c *Client) { c.onRetry = fn }
}

// WithProbeContent sets the text of connectivity test messages.
func WithProbeContent(content string) Option {
	return func(c *Client) { c.probe = content }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a delivery client whose requests time out after timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		log:     zerolog.Nop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
		backoff: DefaultBackoff,
		probe:   English.ProbeContent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backoff returns the delay before the given retry (1-indexed): base, 2*base, 4*base.
func Backoff(base time.Duration, retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return base << (retry - 1)
}

// IsSuccess reports whether a status code is 2xx.
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Deliver posts msg to endpointURL, retrying non-2xx responses and transport
// errors up to MaxAttempts sends in total.
func (c *Client) Deliver(ctx context.Context, msg Message, endpointURL string) Outcome {
	if endpointURL == "" {
		return Outcome{Err: ErrEndpointNotConfigured}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Outcome{Err: fmt.Errorf("encoding message: %w", err)}
	}

	var out Outcome
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := Backoff(c.backoff, attempt-1)
			c.log.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Int("status", out.StatusCode).
				AnErr("last_error", out.Err).
				Msg("retrying discord delivery")
			if c.onRetry != nil {
				c.onRetry(RetryEvent{Attempt: attempt, Delay: delay, StatusCode: out.StatusCode, Err: out.Err})
			}
			if err := sleep(ctx, delay); err != nil {
				out.Err = fmt.Errorf("waiting to retry: %w", err)
				return out
			}
		}

		status, body, err := c.send(ctx, endpointURL, payload)
		out = Outcome{StatusCode: status, Attempts: attempt, Body: body, Err: err}
		if err == nil && IsSuccess(status) {
			out.Success = true
			out.Body = ""
			c.log.Info().Int("attempts", attempt).Int("status", status).Msg("discord delivery succeeded")
			return out
		}
		if ctx.Err() != nil {
			return out
		}
	}

	if out.Err == nil {
		out.Err = fmt.Errorf("%w: discord responded %d", ErrUnexpectedStatus, out.StatusCode)
	}
	c.log.Error().
		Int("attempts", out.Attempts).
		Int("status", out.StatusCode).
		Str("body", out.Body).
		Err(out.Err).
		Msg("discord delivery failed")
	return out
}

// TestConnectivity sends a single probe message. It never retries.
func (c *Client) TestConnectivity(ctx context.Context, endpointURL, username string) bool {
	if endpointURL == "" {
		return false
	}
	payload, err := json.Marshal(Message{Username: username, Content: c.probe})
	if err != nil {
		return false
	}
	status, _, err := c.send(ctx, endpointURL, payload)
	if err != nil {
		c.log.Error().Err(err).Msg("discord connectivity test failed")
		return false
	}
	return IsSuccess(status)
}

func (c *Client) send(ctx context.Context, endpointURL string, payload []byte) (int, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Kincord/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, string(body), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
