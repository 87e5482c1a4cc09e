// Package client is the Go SDK for the sentinel monitoring API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Version is the SDK version reported in the User-Agent header.
const Version = "0.1.0"

// Logger is the logging interface used by the Client.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Client is the sentinel API client.  Sub-clients are created lazily and the
// Client is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	watchlists      *WatchlistsClient
	watchlistsOnce  sync.Once
	alerts          *AlertsClient
	alertsOnce      sync.Once
	competitors     *CompetitorsClient
	competitorsOnce sync.Once
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sentinel: %s (HTTP %d): %s [request_id=%s]",
		e.Code, e.StatusCode, e.Message, e.RequestID)
}

// IsNotFound reports whether the error is a 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsConflict reports whether the error is a 409.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }

// IsRateLimited reports whether the error is a 429.
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// IsServerError reports whether the error is a 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// List is the collection response wrapper used by every list endpoint.
type List[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// NewClient creates a sentinel API client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("sentinel: baseURL must not be empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sentinel: invalid baseURL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("sentinel: baseURL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("sentinel-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Watchlists returns the watchlists sub-client.
func (c *Client) Watchlists() *WatchlistsClient {
	c.watchlistsOnce.Do(func() { c.watchlists = &WatchlistsClient{client: c} })
	return c.watchlists
}

// Alerts returns the alerts sub-client.
func (c *Client) Alerts() *AlertsClient {
	c.alertsOnce.Do(func() { c.alerts = &AlertsClient{client: c} })
	return c.alerts
}

// Competitors returns the competitors sub-client.
func (c *Client) Competitors() *CompetitorsClient {
	c.competitorsOnce.Do(func() { c.competitors = &CompetitorsClient{client: c} })
	return c.competitors
}

// do performs one API call with retry on transport errors, 429s, and 5xxs.
// A nil result discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sentinel: marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debugf("retry %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("sentinel: build request: %w", err)
		}
		requestID := uuid.NewString()
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("sentinel: read response: %w", err)
		}
		c.logger.Debugf("%s %s -> %d", method, path, resp.StatusCode)

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if wait := retryAfter(resp); wait > 0 {
				c.logger.Infof("rate limited, retrying after %v", wait)
				select {
				case <-time.After(wait):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
			if len(respBody) > 0 {
				// Error bodies are {"code": ..., "message": ...}; anything
				// else is preserved verbatim in Message.
				if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
					apiErr.Message = strings.TrimSpace(string(respBody))
				}
			}
			if apiErr.IsServerError() && attempt < c.retryMax {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("sentinel: decode response: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("sentinel: request failed after %d attempts: %w", c.retryMax+1, lastErr)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryWaitMin << (attempt - 1)
	if d > c.retryWaitMax {
		d = c.retryWaitMax
	}
	// Up to 25% jitter so synchronized clients spread out.
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
