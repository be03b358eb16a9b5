package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kmcph/cratedig/internal/shared"
)

// RetryPolicy is a bounded retry wrapper around a single HTTP call.
//
// 429 responses are retried after the server-provided Retry-After duration
// (DefaultWait when the header is missing or malformed). Transport errors are
// retried after TransportWait. Either way the policy gives up once MaxRetries
// retries have been spent.
type RetryPolicy struct {
	MaxRetries    int
	DefaultWait   time.Duration
	TransportWait time.Duration

	sleep func(time.Duration) // test override; nil means context-aware timer
}

// DefaultRetryPolicy returns the policy used in production: five retries,
// one second fallback wait for 429s, two seconds between transport retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		DefaultWait:   time.Second,
		TransportWait: 2 * time.Second,
	}
}

// Do executes send until it yields a non-429 response or the retry budget is
// exhausted. The returned response may still be a non-2xx status; only rate
// limiting and transport failures are the policy's concern.
func (p RetryPolicy) Do(ctx context.Context, send func() (*http.Response, error)) (*http.Response, error) {
	retries := 0
	for {
		resp, err := send()
		if err != nil {
			if retries >= p.MaxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", retries, err)
			}
			retries++
			if werr := p.wait(ctx, p.TransportWait); werr != nil {
				return nil, werr
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := retryAfter(resp, p.DefaultWait)
		resp.Body.Close()

		if retries >= p.MaxRetries {
			return nil, fmt.Errorf("%w: gave up after %d retries", shared.ErrRateLimited, retries)
		}
		retries++
		if werr := p.wait(ctx, wait); werr != nil {
			return nil, werr
		}
	}
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		p.sleep(d)
		return nil
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

// retryAfter reads the Retry-After header in seconds, falling back when absent.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return fallback
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}
