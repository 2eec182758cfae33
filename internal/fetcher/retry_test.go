package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type scriptedFetcher struct {
	fails    int
	attempts int
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (RawResponse, error) {
	f.attempts++
	if f.attempts <= f.fails {
		return RawResponse{}, errors.New("transient error")
	}
	return RawResponse{URL: url, StatusCode: 200, Body: []byte("ok")}, nil
}

func TestLinearBackoffSchedule(t *testing.T) {
	t.Parallel()

	policy := NewLinearRetryPolicy()
	require.Equal(t, 3, policy.MaxAttempts())
	for attempt := 1; attempt < policy.MaxAttempts(); attempt++ {
		require.Equal(t, time.Duration(attempt)*2*time.Second, policy.Backoff(attempt))
	}
}

func TestRetryingSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{fails: 2}
	r := NewRetrying(inner, NewLinearRetryPolicyWith(3, time.Millisecond), zap.NewNop())

	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	resp, err := r.Fetch(context.Background(), "https://example.gov/doc.xml")
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 3, inner.attempts)
	require.Equal(t, []time.Duration{1 * time.Millisecond, 2 * time.Millisecond}, slept)
}

func TestRetryingExhaustsBudget(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{fails: 10}
	r := NewRetrying(inner, NewLinearRetryPolicyWith(3, time.Millisecond), zap.NewNop())
	r.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := r.Fetch(context.Background(), "https://example.gov/doc.xml")
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, 3, fe.Attempts)
	require.Equal(t, "https://example.gov/doc.xml", fe.URL)
	require.EqualError(t, fe.Err, "transient error")
	require.Equal(t, 3, inner.attempts)
}

func TestRetryingStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedFetcher{fails: 10}
	r := NewRetrying(inner, NewLinearRetryPolicyWith(3, time.Hour), zap.NewNop())

	_, err := r.Fetch(ctx, "https://example.gov/doc.xml")
	require.Error(t, err)
	// The canceled context aborts the backoff sleep; only one extra
	// attempt at most should have run.
	require.LessOrEqual(t, inner.attempts, 2)
}

func TestFetchErrorRedactsQueryString(t *testing.T) {
	t.Parallel()

	fe := &FetchError{
		URL:      "https://api.congress.gov/v3/bill/118/hr/1/text?api_key=SUPERSECRETKEY&format=json",
		Attempts: 3,
		Err:      errors.New("server returned 500"),
	}
	require.NotContains(t, fe.Error(), "SUPERSECRETKEY")
	require.Contains(t, fe.Error(), "/v3/bill/118/hr/1/text")
}

func TestRetryingWarnLogRedactsQueryString(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	inner := &scriptedFetcher{fails: 10}
	r := NewRetrying(inner, NewLinearRetryPolicyWith(3, time.Millisecond), zap.New(core))
	r.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := r.Fetch(context.Background(), "https://api.congress.gov/v3/bill/118/hr/1/text?api_key=SUPERSECRETKEY")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "SUPERSECRETKEY")

	entries := logs.All()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		for key, value := range entry.ContextMap() {
			require.NotContains(t, fmt.Sprintf("%v", value), "SUPERSECRETKEY", key)
		}
	}
}

func TestRedactURLUnparseableInput(t *testing.T) {
	t.Parallel()

	require.Equal(t, "http://bad host/path", RedactURL("http://bad host/path?api_key=SUPERSECRETKEY"))
	require.Equal(t, "https://example.gov/doc.xml", RedactURL("https://example.gov/doc.xml"))
}

func TestShouldRetryRespectsContextErrors(t *testing.T) {
	t.Parallel()

	policy := NewLinearRetryPolicy()
	require.False(t, policy.ShouldRetry(nil, 1))
	require.False(t, policy.ShouldRetry(context.Canceled, 1))
	require.False(t, policy.ShouldRetry(context.DeadlineExceeded, 1))
	require.False(t, policy.ShouldRetry(errors.New("boom"), 3))
	require.True(t, policy.ShouldRetry(errors.New("boom"), 2))
}
