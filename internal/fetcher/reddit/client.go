// Package reddit fetches post listings from Reddit's public JSON endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redditradar/redditradar/internal/radar"
)

// Rejection signals surfaced to the rate policy. Anything else is a plain
// transport or decode error.
var (
	ErrForbidden   = errors.New("source rejected request: forbidden")
	ErrRateLimited = errors.New("source rejected request: rate limited")
)

const defaultBaseURL = "https://www.reddit.com"

// Config holds client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client reads per-community listing endpoints. It implements
// radar.Collector.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a Client. A descriptive User-Agent is mandatory for the public
// endpoints; requests without one are throttled aggressively.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		userAgent:  cfg.UserAgent,
	}, nil
}

// listingEnvelope mirrors the nested structure of a listing response; the
// posts live under data.children[].data.
type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data radar.RawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchNewPosts retrieves up to limit newest posts for a community.
func (c *Client) FetchNewPosts(ctx context.Context, community string, limit int) ([]radar.RawPost, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d",
		c.baseURL, url.PathEscape(community), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing for %s: %w", community, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, fmt.Errorf("community %s: %w", community, ErrForbidden)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("community %s: %w", community, ErrRateLimited)
	default:
		return nil, fmt.Errorf("listing for %s: unexpected status %d", community, resp.StatusCode)
	}

	var envelope listingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", community, err)
	}

	posts := make([]radar.RawPost, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}
