// Package fetch retrieves index and chapter markup from source hosts and
// normalizes legacy charsets to UTF-8.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/customtrans/internal/metrics"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	DefaultUserAgent = "Mozilla/5.0"
	maxBodyBytes     = 16 << 20
)

// Client performs single fetch attempts. Retrying is the caller's
// concern; transient failures come back as *RetryableError.
type Client struct {
	httpClient *http.Client
	userAgent  string
	stats      *Stats
}

func NewClient(timeout time.Duration, userAgent string, stats *Stats) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		stats:      stats,
	}
}

// Stats exposes the rolling latency window.
func (c *Client) Stats() *Stats { return c.stats }

// Fetch downloads rawURL and returns its body as UTF-8 text. When enc is
// nil the charset is taken from the response headers or a meta tag.
func (c *Client) Fetch(ctx context.Context, rawURL string, enc encoding.Encoding) (string, error) {
	host := hostLabel(rawURL)
	start := time.Now()
	body, err := c.do(ctx, rawURL, enc)
	elapsed := time.Since(start)

	c.stats.Record(elapsed.Milliseconds())
	metrics.FetchDuration.WithLabelValues(host).Observe(elapsed.Seconds())
	metrics.FetchRequests.WithLabelValues(host, outcome(err)).Inc()
	return body, err
}

func (c *Client) do(ctx context.Context, rawURL string, enc encoding.Encoding) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.AddCookie(&http.Cookie{Name: "over18", Value: "yes"})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(msg)}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("fetch %s: status %d: %s", rawURL, resp.StatusCode, truncate(string(msg), 200))
	}

	var r io.Reader = io.LimitReader(resp.Body, maxBodyBytes)
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	} else {
		r, err = charset.NewReader(r, resp.Header.Get("Content-Type"))
		if err != nil {
			return "", fmt.Errorf("detect charset: %w", err)
		}
	}

	b, err := io.ReadAll(r)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &RetryableError{Message: fmt.Sprintf("read body: %v", err)}
	}
	return string(b), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure that can be retried.
// StatusCode is zero for transport failures.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err wraps a *RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRetryable(err):
		return "retryable"
	default:
		return "error"
	}
}

func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
