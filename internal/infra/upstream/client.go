// Package upstream provides the client for the advertising platform API,
// the single remote backend behind the dashboard. All calls share a JSON
// response envelope: {"success": bool, "message": string, "data": ...}.
// A 2xx response with success=false is an application-level rejection and
// is surfaced as *domain.ErrUpstreamRejected, distinct from transport
// failures.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("upstream")

// Client wraps HTTP calls to the platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a platform API client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
		logger:     logger,
	}
}

// envelope is the platform API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doRequest executes an authenticated request and decodes the envelope.
// Transport and non-2xx failures are returned as errors; an envelope with
// success=false is returned without error so callers can decide whether
// it is a rejection (writes) or empty data (reads).
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) (*envelope, error) {
	u := fmt.Sprintf("%s/api/v1/%s", c.baseURL, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		c.logger.Error("upstream: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("upstream: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return nil, fmt.Errorf("platform API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	c.logger.Debug("upstream: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", env.Success),
	)

	return &env, nil
}

// call runs fn behind the bulkhead, circuit breaker, and retry policy.
// Only transport-level failures are retried and counted by the breaker;
// application-level outcomes (rejections, not-found) are permanent and
// returned immediately.
func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var permanent error
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			err := fn()
			if isPermanent(err) {
				permanent = err
				return nil
			}
			return err
		})
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "platform-api"}
	}
	if err != nil {
		return err
	}
	return permanent
}

// isPermanent reports whether err is a definitive answer from the
// platform rather than a transient transport failure.
func isPermanent(err error) bool {
	switch err.(type) {
	case *domain.ErrUpstreamRejected, *domain.ErrNotFound:
		return true
	}
	return false
}

// Ping checks platform API reachability for the health endpoint.
func (c *Client) Ping(ctx context.Context) (int64, error) {
	start := time.Now()
	_, err := c.doRequest(ctx, http.MethodGet, "health", nil, nil)
	return time.Since(start).Milliseconds(), err
}
