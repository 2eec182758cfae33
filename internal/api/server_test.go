package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

type stubSource struct {
	views []stats.View
}

func (s stubSource) Views() []stats.View {
	return s.views
}

func newTestServer(source ProgressSource, cfg Config) *httptest.Server {
	return httptest.NewServer(NewServer(source, nil, cfg, nil).Handler())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(stubSource{}, Config{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProgressEndpoint(t *testing.T) {
	t.Parallel()

	cur := &bills.ID{Congress: 118, Type: "hr", Number: "42"}
	source := stubSource{views: []stats.View{
		{Worker: 0, Processed: 25, Successful: 20, Failed: 5, WithText: 18, Current: cur},
		{Worker: 1, Processed: 17, Successful: 17, WithText: 15},
	}}
	srv := newTestServer(source, Config{JobLimit: 100, JobWorkers: 2})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body progressResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, 42, body.Percent)
	assert.Equal(t, 100, body.Limit)
	assert.EqualValues(t, 42, body.Processed)
	assert.EqualValues(t, 37, body.Successful)
	assert.EqualValues(t, 5, body.Failed)
	require.Len(t, body.Workers, 2)
	assert.Equal(t, 50, body.Workers[0].Percent)
	assert.Equal(t, "118-hr-42", body.Workers[0].Current)
	assert.Empty(t, body.Workers[1].Current)
}

func TestProgressWithoutSource(t *testing.T) {
	t.Parallel()

	srv := newTestServer(nil, Config{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	srv := newTestServer(stubSource{}, Config{APIKey: "sekrit"})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "sekrit")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz?api_key=sekrit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpointAbsentWhenNil(t *testing.T) {
	t.Parallel()

	srv := newTestServer(stubSource{}, Config{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
