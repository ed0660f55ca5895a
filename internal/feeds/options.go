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

// OptionsClientConfig controls the option-chain client.
type OptionsClientConfig struct {
	BaseURL            string     `json:"base_url"`
	UserAgent          string     `json:"user_agent"`
	MaxCallsPerMinute  int        `json:"max_calls_per_minute"`
	RetryAttempts      int        `json:"retry_attempts"`
	RetryBackoff       Seconds    `json:"retry_backoff_seconds"`
	IVRankWindow       int        `json:"iv_rank_window"`
	IVRankLookbackDays int        `json:"iv_rank_lookback_days"`
	Flow               FlowConfig `json:"flow"`
}

func (c OptionsClientConfig) withDefaults() OptionsClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://query1.finance.yahoo.com"
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
	if c.IVRankWindow <= 0 {
		c.IVRankWindow = 30
	}
	if c.IVRankLookbackDays <= 0 {
		c.IVRankLookbackDays = 250
	}
	c.Flow = c.Flow.withDefaults()
	return c
}

// OptionsClient derives the positioning snapshot from the public option-chain
// API, ranking volatility against bar history from the supplied price feed.
// It implements market.OptionsFeed.
type OptionsClient struct {
	cfg        OptionsClientConfig
	httpClient *http.Client
	limiter    *RateLimiter
	prices     market.PriceFeed
}

// NewOptionsClient builds a chain client. prices supplies the close history
// used for the volatility rank; when that fetch fails the rank degrades to
// neutral instead of failing the whole snapshot.
func NewOptionsClient(cfg OptionsClientConfig, prices market.PriceFeed) *OptionsClient {
	cfg = cfg.withDefaults()
	return &OptionsClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: NewRateLimiter(cfg.MaxCallsPerMinute, time.Minute),
		prices:  prices,
	}
}

// chainResponse mirrors the option-chain API payload for the front expiry.
type chainResponse struct {
	OptionChain struct {
		Result []struct {
			Options []struct {
				Calls []OptionContract `json:"calls"`
				Puts  []OptionContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

// Metrics fetches the front-expiry chain for ticker and computes the
// positioning snapshot from it.
func (c *OptionsClient) Metrics(ctx context.Context, ticker string) (market.OptionsMetrics, error) {
	var calls, puts []OptionContract
	err := doWithRetry(ctx, c.cfg.RetryAttempts, c.cfg.RetryBackoff.Duration(), func() error {
		cs, ps, err := c.fetchChain(ctx, ticker)
		if err != nil {
			return err
		}
		calls, puts = cs, ps
		return nil
	})
	if err != nil {
		return market.OptionsMetrics{}, fmt.Errorf("%w: option chain for %s: %v", market.ErrFeedUnavailable, ticker, err)
	}

	direction, _ := ClassifyFlow(calls, puts, c.cfg.Flow)
	callVol := totalVolume(calls)
	putVol := totalVolume(puts)

	return market.OptionsMetrics{
		IVRank:        c.ivRank(ctx, ticker),
		FlowDirection: direction,
		PutCallRatio:  PutCallRatio(callVol, putVol),
		CallVolume:    callVol,
		PutVolume:     putVol,
		CallOI:        totalOpenInterest(calls),
		PutOI:         totalOpenInterest(puts),
	}, nil
}

// ivRank computes the volatility rank from close history, degrading to the
// neutral 50 when history is unavailable.
func (c *OptionsClient) ivRank(ctx context.Context, ticker string) float64 {
	if c.prices == nil {
		return 50
	}
	series, err := c.prices.Fetch(ctx, ticker, c.cfg.IVRankLookbackDays)
	if err != nil {
		return 50
	}
	return IVRankFromCloses(series.Closes(), c.cfg.IVRankWindow)
}

func (c *OptionsClient) fetchChain(ctx context.Context, ticker string) ([]OptionContract, []OptionContract, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", c.cfg.BaseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building chain request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching chain: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading chain response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("chain API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chainResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("parsing chain response: %w", err)
	}
	if parsed.OptionChain.Error != nil {
		return nil, nil, fmt.Errorf("chain API error %s: %s", parsed.OptionChain.Error.Code, parsed.OptionChain.Error.Description)
	}
	if len(parsed.OptionChain.Result) == 0 || len(parsed.OptionChain.Result[0].Options) == 0 {
		return nil, nil, fmt.Errorf("chain response for %s has no expiries", ticker)
	}

	front := parsed.OptionChain.Result[0].Options[0]
	return front.Calls, front.Puts, nil
}
