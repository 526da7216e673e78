// Package httpretry retries ad-platform HTTP calls that fail with rate
// limits, gateway errors or transport errors.
package httpretry

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/adlens/internal/pkg/logger"
)

// HTTPDoer executes one HTTP request. *http.Client and *RetryClient both
// satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const minDelay = 100 * time.Millisecond

// RetryClient wraps an HTTPDoer. Retries use capped exponential backoff
// with full jitter; a Retry-After header within the cap takes precedence.
type RetryClient struct {
	next       HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps client, or a 30s-timeout http.Client when nil.
// maxRetries counts attempts after the first and defaults to 3.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{next: client, maxRetries: maxRetries, baseDelay: time.Second, maxDelay: 30 * time.Second}
}

// WithDelays overrides the backoff bounds.
func (rc *RetryClient) WithDelays(base, max time.Duration) *RetryClient {
	rc.baseDelay, rc.maxDelay = base, max
	return rc
}

// Do sends req until it gets a non-retryable answer or runs out of
// attempts. The last retryable response is returned unread so callers can
// decode the platform's error body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	var (
		lastErr error
		hint    time.Duration
	)
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := rewind(req); err != nil {
				return nil, err
			}
			wait := rc.backoff(attempt, hint)
			logger.Warn("retrying platform request",
				"attempt", attempt, "max", rc.maxRetries,
				"method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return nil, firstErr(lastErr, err)
			}
		}

		resp, err := rc.next.Do(req)
		final := attempt >= rc.maxRetries
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr, hint = err, 0
		case !Retryable(resp.StatusCode) || final:
			return resp, nil
		default:
			hint = parseRetryAfter(resp.Header.Get("Retry-After"))
			discard(resp)
			lastErr = fmt.Errorf("httpretry: %s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
		}
		if final {
			return nil, lastErr
		}
	}
}

// backoff picks a jittered delay no larger than min(maxDelay, base*2^(attempt-1)),
// floored at minDelay.
func (rc *RetryClient) backoff(attempt int, hint time.Duration) time.Duration {
	ceiling := rc.maxDelay
	if shift := attempt - 1; shift < 32 {
		if d := rc.baseDelay << shift; d > 0 && d < ceiling {
			ceiling = d
		}
	}
	d := time.Duration(rand.Int63n(int64(ceiling) + 1))
	if d < minDelay {
		d = min(minDelay, rc.maxDelay)
	}
	if hint > d && hint <= rc.maxDelay {
		d = hint
	}
	return d
}

// Retryable reports whether a platform status is worth another attempt.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("httpretry: reset request body: %w", err)
	}
	req.Body = body
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
