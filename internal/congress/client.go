// Package congress wraps the upstream bill document API.
package congress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/fetcher"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.congress.gov"

// Config carries the API endpoint and credentials. The key is passed as
// a query parameter per the API contract; it must never be logged.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client retrieves text-version listings for bills.
type Client struct {
	fetch  fetcher.Fetcher
	cfg    Config
	logger *zap.Logger
}

// NewClient builds a Client on top of the provided fetcher.
func NewClient(fetch fetcher.Fetcher, cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{fetch: fetch, cfg: cfg, logger: logger}
}

type textResponse struct {
	TextVersions []bills.TextVersion `json:"textVersions"`
}

// TextVersions lists the publication stages for one bill, oldest first,
// as ordered by the upstream API. A bill with no text yet returns an
// empty slice and no error.
func (c *Client) TextVersions(ctx context.Context, bill bills.ID) ([]bills.TextVersion, error) {
	endpoint, err := c.textURL(bill)
	if err != nil {
		return nil, err
	}

	resp, err := c.fetch.Fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("bill %s text versions: %w", bill, err)
	}

	var decoded textResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, &fetcher.FetchError{
			URL:      fetcher.RedactURL(endpoint),
			Attempts: 1,
			Err:      fmt.Errorf("decode text versions: %w", err),
		}
	}
	c.logger.Debug("text versions listed",
		zap.String("bill", bill.String()),
		zap.Int("versions", len(decoded.TextVersions)),
	)
	return decoded.TextVersions, nil
}

func (c *Client) textURL(bill bills.ID) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	base.Path = fmt.Sprintf("/v3/bill/%d/%s/%s/text", bill.Congress, bill.Type, bill.Number)
	q := url.Values{}
	q.Set("format", "json")
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}
