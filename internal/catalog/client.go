package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOpts configures a catalog Client.
type ClientOpts struct {
	// URL is the published feed endpoint (typically an Apps Script web app).
	URL string
	// Timeout overrides the default transport timeout.
	Timeout time.Duration
}

// Client fetches the shop's published JSON feed.
type Client struct {
	httpClient *resty.Client
	url        string
}

func NewClient(opts ClientOpts) *Client {
	c := Client{url: opts.URL}
	c.httpClient = resty.New().
		SetDebug(false).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		c.httpClient.SetTimeout(opts.Timeout)
	}
	return &c
}

// FetchFeed performs a single GET of the feed. Apps Script deployments serve
// JSON with a text/plain content type, so decoding is forced.
func (c *Client) FetchFeed(ctx context.Context) (Feed, error) {
	var feed Feed
	_, err := handleError(c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetResult(&feed).
		ForceContentType("application/json").
		Get(c.url))
	if err != nil {
		return Feed{}, err
	}
	return feed, nil
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
