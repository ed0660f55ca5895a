package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"equity-signal-bot/internal/market"
)

// NewsClientConfig controls the headline RSS client.
type NewsClientConfig struct {
	FeedURL           string  `json:"feed_url"`
	UserAgent         string  `json:"user_agent"`
	MaxCallsPerMinute int     `json:"max_calls_per_minute"`
	RetryAttempts     int     `json:"retry_attempts"`
	RetryBackoff      Seconds `json:"retry_backoff_seconds"`
}

func (c NewsClientConfig) withDefaults() NewsClientConfig {
	if c.FeedURL == "" {
		c.FeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) equity-signal-bot/1.0"
	}
	if c.MaxCallsPerMinute <= 0 {
		c.MaxCallsPerMinute = 20
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2
	}
	return c
}

// NewsClient pulls per-ticker headlines from an RSS feed. It implements
// market.NewsFeed.
type NewsClient struct {
	cfg        NewsClientConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewNewsClient builds a headline client with a 10s request timeout.
func NewNewsClient(cfg NewsClientConfig) *NewsClient {
	cfg = cfg.withDefaults()
	return &NewsClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: NewRateLimiter(cfg.MaxCallsPerMinute, time.Minute),
	}
}

// rssDocument covers the subset of RSS 2.0 the feed emits. Only titles are
// scored, so the rest of each item is ignored.
type rssDocument struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Headlines returns up to count recent headline titles for ticker, newest
// first. An empty feed yields an empty slice, not an error.
func (c *NewsClient) Headlines(ctx context.Context, ticker string, count int) ([]string, error) {
	var titles []string
	err := doWithRetry(ctx, c.cfg.RetryAttempts, c.cfg.RetryBackoff.Duration(), func() error {
		t, err := c.fetchHeadlines(ctx, ticker)
		if err != nil {
			return err
		}
		titles = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: headlines for %s: %v", market.ErrFeedUnavailable, ticker, err)
	}
	if count > 0 && len(titles) > count {
		titles = titles[:count]
	}
	return titles, nil
}

func (c *NewsClient) fetchHeadlines(ctx context.Context, ticker string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("s", ticker)
	params.Add("region", "US")
	params.Add("lang", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.cfg.FeedURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("building headlines request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching headlines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading headlines response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headlines API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing headlines feed: %w", err)
	}

	titles := make([]string, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		if item.Title != "" {
			titles = append(titles, item.Title)
		}
	}
	return titles, nil
}
