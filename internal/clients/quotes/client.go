// Package quotes provides last-close quotes from the public Yahoo
// Finance chart API, used as a pricing fallback when provider data is
// unavailable
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// Client implements the QuotesClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new quotes client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CleanTicker rewrites a ticker for quote-source compatibility: the
// provider suffix is dropped and dots become dashes (BRK.B -> BRK-B).
func CleanTicker(ticker string) string {
	if i := strings.Index(ticker, "-US"); i > 0 && i == len(ticker)-3 {
		ticker = ticker[:i]
	}
	return strings.ReplaceAll(ticker, ".", "-")
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// GetCurrentPrices retrieves last-close prices keyed by the original
// ticker. Tickers that fail to resolve are skipped with a warning, so
// a partial result is still useful.
func (c *Client) GetCurrentPrices(ctx context.Context, tickers []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(tickers))

	for _, ticker := range tickers {
		price, err := c.lastClose(ctx, CleanTicker(ticker))
		if err != nil {
			if ctx.Err() != nil {
				return prices, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote lookup failed")
			continue
		}
		prices[ticker] = price
	}

	c.logger.Debug().Int("priced", len(prices)).Int("requested", len(tickers)).Msg("quote prices returned")
	return prices, nil
}

func (c *Client) lastClose(ctx context.Context, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("quote request for %s failed: status %d: %s", symbol, resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("no quote data for %s", symbol)
	}
	return chart.Chart.Result[0].Meta.RegularMarketPrice, nil
}

// Ensure Client implements QuotesClient
var _ interfaces.QuotesClient = (*Client)(nil)
