package unifiedllm

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy configures retry behavior for LLM generation calls.
//
// The backoff formula (0.8*(attempt+1) seconds, MaxRetries=2) and the
// per-call deadline are fixed by the dialogue system's concurrency model,
// not left as generic exponential backoff: a single failed generation must
// not stall a turn for long, since the Observer and dream cycle both sit
// downstream of the same adapter.
type RetryPolicy struct {
	MaxRetries  int           // total retry attempts (not counting initial)
	BaseDelay   float64       // seconds; multiplied by (attempt+1)
	CallTimeout time.Duration // per-call deadline
	Jitter      bool          // add random jitter to prevent thundering herd
	OnRetry     func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the dialogue system's default retry policy:
// two retries, 0.8*(attempt+1)s backoff, 600s per-call deadline.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  2,
		BaseDelay:   0.8,
		CallTimeout: 600 * time.Second,
		Jitter:      false,
	}
}

// Delay calculates the delay before attempt n (0-indexed): 0.8*(attempt+1)
// seconds.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay * float64(attempt+1)
	if p.Jitter {
		delay = delay * (0.5 + rand.Float64())
	}
	return time.Duration(delay * float64(time.Second))
}

// Retry executes fn with the configured retry policy.
// Only retryable errors are retried.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}

	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		if !IsRetryable(err) {
			return zero, err
		}

		// Check for Retry-After on rate limit errors.
		delay := policy.Delay(attempt)
		if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter != nil {
			retryDelay := time.Duration(*rl.RetryAfter * float64(time.Second))
			if retryDelay > policy.CallTimeout {
				// Retry-After exceeds the per-call deadline; raise immediately.
				return zero, err
			}
			delay = retryDelay
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return zero, &AbortError{SDKError: SDKError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-time.After(delay):
		}

		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
	}

	return zero, err
}
