// Package fetcher performs bounded-retry HTTP document fetches.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RawResponse is the undecoded result of a successful fetch.
type RawResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a single document. Implementations must honor ctx
// cancellation and return a non-nil error for any non-2xx response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (RawResponse, error)
}

// FetchError wraps the final failure after a fetch's retry budget is
// exhausted. It is non-fatal to the job; callers fall back to the next
// rendition or record the bill as having no text.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", RedactURL(e.URL), e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RedactURL strips the query string from raw. Upstream APIs carry the
// credential as a query parameter, so every URL surfaced in errors or
// logs must pass through here first.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		raw, _, _ = strings.Cut(raw, "?")
		return raw
	}
	u.RawQuery = ""
	return u.String()
}

// redactTransportErr rewrites the URL inside a net/http transport error,
// which embeds the full request URL, credential included. The wrapped
// cause is preserved so errors.Is still sees context errors.
func redactTransportErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: RedactURL(ue.URL), Err: ue.Err}
	}
	return err
}
