// Package factset provides a client for the FactSet content APIs
package factset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/interfaces"
)

const (
	DefaultBaseURL       = "https://api.factset.com"
	DefaultTimeout       = 30 * time.Second
	DefaultRateLimit     = 5 // requests per second
	DefaultMaxRetries    = 3
	DefaultMaxRetryDelay = 5 * time.Minute
)

// Client implements the FactSetClient interface
type Client struct {
	baseURL       string
	username      string
	apiKey        string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
	maxRetries    int
	maxRetryDelay time.Duration
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

// WithMaxRetries sets the retry budget for transport and 5xx failures
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithMaxRetryDelay caps the wait accepted from a Retry-After header
func WithMaxRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetryDelay = d
	}
}

// NewClient creates a new FactSet client authenticating with the
// username-serial / API key pair
func NewClient(username, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		username: username,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:        common.NewSilentLogger(),
		maxRetries:    DefaultMaxRetries,
		maxRetryDelay: DefaultMaxRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// dataEnvelope is the standard FactSet response wrapper.
type dataEnvelope[T any] struct {
	Data []T `json:"data"`
}

// do performs a rate-limited request with bounded retries. Waits
// requested via Retry-After are honoured up to maxRetryDelay; beyond
// that the call fails with RateLimitError instead of blocking for
// hours on an exhausted quota.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, time.Duration(attempt)*time.Second); err != nil {
				return err
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(c.username, c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug().Str("method", method).Str("path", path).Int("attempt", attempt).Msg("FactSet API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request: %w", err)
			continue
		}

		retry, err := c.handleResponse(ctx, resp, path, result)
		if err == nil && !retry {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return lastErr
}

// handleResponse decodes a success or classifies a failure. It returns
// retry=true for failures worth another attempt.
func (c *Client) handleResponse(ctx context.Context, resp *http.Response, path string, result any) (bool, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if result == nil {
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := retryAfter(resp)
		if wait > c.maxRetryDelay {
			return false, &RateLimitError{Endpoint: path, RetryAfter: wait, MaxDelay: c.maxRetryDelay}
		}
		c.logger.Warn().Dur("wait", wait).Str("path", path).Msg("FactSet rate limited, waiting before retry")
		if err := sleepCtx(ctx, wait); err != nil {
			return false, err
		}
		return true, &APIError{StatusCode: resp.StatusCode, Message: "rate limited", Endpoint: path}

	case resp.StatusCode == http.StatusUnauthorized:
		return false, &AuthError{Endpoint: path}

	case resp.StatusCode == http.StatusForbidden:
		return false, &PermissionError{Endpoint: path}

	case resp.StatusCode == http.StatusNotFound:
		return false, &NotFoundError{Endpoint: path}

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		return true, &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}

	default:
		body, _ := io.ReadAll(resp.Body)
		return false, &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Client implements FactSetClient
var _ interfaces.FactSetClient = (*Client)(nil)
