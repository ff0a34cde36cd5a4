package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/customtrans/internal/fetch"
	"golang.org/x/text/encoding"
)

// Fetcher retrieves one page as decoded text. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, enc encoding.Encoding) (string, error)
}

// RetryPolicy bounds how a page fetch is retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultRetryPolicy makes five attempts, waiting 1s, 2s, 4s and 8s
// (plus jitter) between them.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Base: time.Second, Max: 30 * time.Second}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	return fetch.IsRetryable(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.Base << uint(attempt)
	if base > p.Max || base <= 0 {
		base = p.Max
	}
	if half := int64(base) / 2; half > 0 {
		base += time.Duration(rand.Int64N(half))
	}
	return base
}

// UnreachableError is returned when a page could not be fetched after
// every allowed attempt, or failed permanently.
type UnreachableError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s unreachable after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// fetchWithRetry fetches url, retrying transient failures. Cancellation
// is returned as the context's error, not as UnreachableError.
func fetchWithRetry(ctx context.Context, f Fetcher, p RetryPolicy, log *slog.Logger, url string, enc encoding.Encoding) (string, error) {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		body, err := f.Fetch(ctx, url, enc)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", &UnreachableError{URL: url, Attempts: attempt + 1, Err: err}
		}
		if attempt == attempts-1 {
			break
		}
		log.Warn("retryable fetch error", "url", url, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", &UnreachableError{URL: url, Attempts: attempts, Err: lastErr}
}

// isCancellation reports whether err came from the caller giving up.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
