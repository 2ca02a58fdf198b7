package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	maxRetryAfter     = 30 * time.Second
)

// shouldRetry reports whether an attempt is worth repeating and the server-requested delay.
// 404 and other client errors are final.
func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}

	return 0, false
}

// parseRetryAfter accepts delta-seconds or an HTTP date, capped at maxRetryAfter.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	var delay time.Duration
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		delay = time.Duration(seconds) * time.Second
	} else if when, err := http.ParseTime(raw); err == nil {
		delay = time.Until(when)
	}

	if delay <= 0 {
		return 0
	}
	return min(delay, maxRetryAfter)
}

// backoffFor returns base doubled per attempt, unless the server asked for a specific delay.
func backoffFor(base time.Duration, attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return base * time.Duration(1<<attempt)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
