package fetcher

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LinearRetryPolicy waits attempt*step between attempts. The upstream
// document hosts throttle aggressively on bursts, so the ramp is linear
// rather than exponential.
type LinearRetryPolicy struct {
	maxAttempts int
	step        time.Duration
}

// NewLinearRetryPolicy builds a policy with the default budget of three
// attempts and a two second step.
func NewLinearRetryPolicy() *LinearRetryPolicy {
	return &LinearRetryPolicy{maxAttempts: 3, step: 2 * time.Second}
}

// NewLinearRetryPolicyWith overrides the defaults; zero values fall back
// to them.
func NewLinearRetryPolicyWith(maxAttempts int, step time.Duration) *LinearRetryPolicy {
	p := NewLinearRetryPolicy()
	if maxAttempts > 0 {
		p.maxAttempts = maxAttempts
	}
	if step > 0 {
		p.step = step
	}
	return p
}

// MaxAttempts returns the attempt budget.
func (p *LinearRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether another attempt is allowed after attempt
// (1-based) failed with err.
func (p *LinearRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Backoff returns the wait before the attempt following attempt (1-based).
func (p *LinearRetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * p.step
}

// Retrying wraps a Fetcher with a bounded retry loop. Each call's budget
// is independent; there is no circuit breaker or cross-call limiting.
type Retrying struct {
	inner  Fetcher
	policy *LinearRetryPolicy
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetrying builds the retrying wrapper.
func NewRetrying(inner Fetcher, policy *LinearRetryPolicy, logger *zap.Logger) *Retrying {
	if policy == nil {
		policy = NewLinearRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		inner:  inner,
		policy: policy,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Fetch attempts the GET up to the policy budget, sleeping the policy
// backoff between attempts. The final failure is returned as *FetchError.
func (r *Retrying) Fetch(ctx context.Context, url string) (RawResponse, error) {
	var (
		lastErr error
		tried   int
	)
	for attempt := 1; ; attempt++ {
		tried = attempt
		resp, err := r.inner.Fetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !r.policy.ShouldRetry(err, attempt) {
			break
		}
		wait := r.policy.Backoff(attempt)
		r.logger.Warn("fetch attempt failed, backing off",
			zap.String("url", RedactURL(url)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if serr := r.sleep(ctx, wait); serr != nil {
			lastErr = serr
			break
		}
	}
	return RawResponse{}, &FetchError{
		URL:      url,
		Attempts: tried,
		Err:      lastErr,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
