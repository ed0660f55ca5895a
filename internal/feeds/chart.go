package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"equity-signal-bot/internal/market"
)

// ChartConfig controls the quote-API client.
type ChartConfig struct {
	BaseURL           string  `json:"base_url"`
	UserAgent         string  `json:"user_agent"`
	IndexSymbol       string  `json:"index_symbol"`
	RateSymbol        string  `json:"rate_symbol"`
	MacroLookbackDays int     `json:"macro_lookback_days"`
	MaxCallsPerMinute int     `json:"max_calls_per_minute"`
	RetryAttempts     int     `json:"retry_attempts"`
	RetryBackoff      Seconds `json:"retry_backoff_seconds"`
}

// Seconds is a duration stored as a plain number of seconds in JSON config.
type Seconds float64

// Duration converts the config value into a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

func (c ChartConfig) withDefaults() ChartConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) equity-signal-bot/1.0"
	}
	if c.IndexSymbol == "" {
		c.IndexSymbol = "QQQ"
	}
	if c.RateSymbol == "" {
		c.RateSymbol = "^TNX"
	}
	if c.MacroLookbackDays <= 0 {
		c.MacroLookbackDays = 250
	}
	if c.MaxCallsPerMinute <= 0 {
		c.MaxCallsPerMinute = 30
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2
	}
	return c
}

// ChartClient fetches daily bars from the public chart API. It implements
// both market.PriceFeed and market.MacroFeed so the scanner needs a single
// quote dependency.
type ChartClient struct {
	cfg        ChartConfig
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewChartClient builds a client with a 10s request timeout and a shared
// per-minute rate limit across all symbols.
func NewChartClient(cfg ChartConfig) *ChartClient {
	cfg = cfg.withDefaults()
	return &ChartClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: NewRateLimiter(cfg.MaxCallsPerMinute, time.Minute),
	}
}

// chartResponse mirrors the chart API payload. Quote arrays may contain nulls
// on half-days and data gaps, hence the pointer element types.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns validated daily bars for ticker covering lookbackDays.
func (c *ChartClient) Fetch(ctx context.Context, ticker string, lookbackDays int) (market.PriceSeries, error) {
	var series market.PriceSeries
	err := doWithRetry(ctx, c.cfg.RetryAttempts, c.cfg.RetryBackoff.Duration(), func() error {
		s, err := c.fetchChart(ctx, ticker, lookbackDays)
		if err != nil {
			return err
		}
		series = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chart request for %s: %v", market.ErrFeedUnavailable, ticker, err)
	}
	if err := ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("chart data for %s: %w", ticker, err)
	}
	return series, nil
}

// IndexAndRate fetches the macro pair: the broad-index bars and the rate
// proxy bars, both over the configured macro lookback.
func (c *ChartClient) IndexAndRate(ctx context.Context) (market.PriceSeries, market.PriceSeries, error) {
	index, err := c.Fetch(ctx, c.cfg.IndexSymbol, c.cfg.MacroLookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("macro index %s: %w", c.cfg.IndexSymbol, err)
	}
	rate, err := c.Fetch(ctx, c.cfg.RateSymbol, c.cfg.MacroLookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("macro rate %s: %w", c.cfg.RateSymbol, err)
	}
	return index, rate, nil
}

func (c *ChartClient) fetchChart(ctx context.Context, ticker string, lookbackDays int) (market.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.cfg.BaseURL, url.PathEscape(ticker))
	params := url.Values{}
	params.Add("range", fmt.Sprintf("%dd", lookbackDays))
	params.Add("interval", "1d")
	params.Add("includePrePost", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("building chart request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chart: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chart response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s has no quote data", ticker)
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(market.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		// Skip bars missing any field rather than inventing values.
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		vol := 0.0
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		series = append(series, market.PricePoint{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: vol,
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("chart response for %s has no usable bars", ticker)
	}
	return series, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
