package congress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/fetcher"
)

type fakeFetcher struct {
	lastURL string
	body    []byte
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (fetcher.RawResponse, error) {
	f.lastURL = url
	if f.err != nil {
		return fetcher.RawResponse{}, f.err
	}
	return fetcher.RawResponse{URL: url, StatusCode: 200, Body: f.body}, nil
}

func TestTextVersionsDecodesPayload(t *testing.T) {
	t.Parallel()

	payload := `{
		"textVersions": [
			{"type": "Introduced in House", "date": "2023-05-01", "formats": [
				{"type": "Formatted XML", "url": "https://www.congress.gov/118/bills/hr1/BILLS-118hr1ih.xml"}
			]},
			{"type": "Engrossed in House", "date": "2023-06-01", "formats": [
				{"type": "PDF", "url": "https://www.congress.gov/118/bills/hr1/BILLS-118hr1eh.pdf"},
				{"type": "Formatted Text", "url": "https://www.congress.gov/118/bills/hr1/BILLS-118hr1eh.htm"}
			]}
		]
	}`
	ff := &fakeFetcher{body: []byte(payload)}
	c := NewClient(ff, Config{APIKey: "secret"}, zap.NewNop())

	bill := bills.ID{Congress: 118, Type: "hr", Number: "1"}
	versions, err := c.TextVersions(context.Background(), bill)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "Engrossed in House", versions[1].Type)
	require.Len(t, versions[1].Renditions, 2)

	require.Contains(t, ff.lastURL, "/v3/bill/118/hr/1/text")
	require.Contains(t, ff.lastURL, "api_key=secret")
	require.Contains(t, ff.lastURL, "format=json")
}

func TestTextVersionsEmptyListing(t *testing.T) {
	t.Parallel()

	ff := &fakeFetcher{body: []byte(`{"textVersions": []}`)}
	c := NewClient(ff, Config{}, zap.NewNop())

	versions, err := c.TextVersions(context.Background(), bills.ID{Congress: 118, Type: "s", Number: "42"})
	require.NoError(t, err)
	require.Empty(t, versions)
}

func TestTextVersionsFetchErrorPropagates(t *testing.T) {
	t.Parallel()

	wrapped := &fetcher.FetchError{URL: "u", Attempts: 3, Err: errors.New("boom")}
	ff := &fakeFetcher{err: wrapped}
	c := NewClient(ff, Config{}, zap.NewNop())

	_, err := c.TextVersions(context.Background(), bills.ID{Congress: 118, Type: "hr", Number: "1"})
	require.Error(t, err)
	var fe *fetcher.FetchError
	require.ErrorAs(t, err, &fe)
}

func TestTextVersionsFetchFailureRedactsKey(t *testing.T) {
	t.Parallel()

	// Drive the request through the retry wrapper so the key-bearing URL
	// crosses the same surfaces it does in production.
	inner := &fakeFetcher{err: errors.New("server returned 500")}
	retrying := fetcher.NewRetrying(inner, fetcher.NewLinearRetryPolicyWith(1, 0), zap.NewNop())
	c := NewClient(retrying, Config{APIKey: "SUPERSECRETKEY"}, zap.NewNop())

	_, err := c.TextVersions(context.Background(), bills.ID{Congress: 118, Type: "hr", Number: "1"})
	require.Error(t, err)
	require.Contains(t, inner.lastURL, "api_key=SUPERSECRETKEY")
	require.NotContains(t, err.Error(), "SUPERSECRETKEY")
	require.Contains(t, err.Error(), "/v3/bill/118/hr/1/text")
}

func TestTextVersionsMalformedJSONRedactsKey(t *testing.T) {
	t.Parallel()

	ff := &fakeFetcher{body: []byte(`not json`)}
	c := NewClient(ff, Config{APIKey: "secret"}, zap.NewNop())

	_, err := c.TextVersions(context.Background(), bills.ID{Congress: 118, Type: "hr", Number: "1"})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret")

	var fe *fetcher.FetchError
	require.ErrorAs(t, err, &fe)
}
