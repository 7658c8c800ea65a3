// Package measurements proxies the backend's recent-measurements endpoint.
// Failures never reach the caller: the dashboard renders an empty list and
// the cause is logged and counted.
package measurements

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/knowledge-hub/internal/config"
	apperrors "github.com/jrsteele09/knowledge-hub/internal/errors"
	"github.com/jrsteele09/knowledge-hub/internal/metrics"
	"github.com/rs/zerolog"
)

const (
	recentPath   = "/api/measurements/recent"
	maxBodyBytes = 4 << 20
	userAgent    = "knowledge-hub/1.0"
)

// Empty is what Recent returns when the backend could not be used.
var Empty = json.RawMessage("[]")

type Client struct {
	endpoint   string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
}

// NewClient builds a client for c. m may be nil.
func NewClient(c config.BackendConfig, m *metrics.Collector) (*Client, error) {
	u, err := url.Parse(c.GetBackendURL() + recentPath)
	if err != nil {
		return nil, fmt.Errorf("[measurements NewClient] invalid backend URL %q: %w", c.GetBackendURL(), err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.GetMeasurementsLimit()))
	u.RawQuery = q.Encode()

	return &Client{
		endpoint:   u.String(),
		baseURL:    c.GetBackendURL(),
		httpClient: &http.Client{Timeout: c.GetBackendTimeout()},
		metrics:    m,
	}, nil
}

// Endpoint is the full URL requested by Recent.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Recent returns the backend's JSON document unmodified, or Empty on a
// network error, timeout, non-2xx status or invalid JSON.
func (c *Client) Recent(ctx context.Context) json.RawMessage {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	body, outcome, err := c.fetch(ctx)
	c.metrics.RecordFetch(outcome, time.Since(start))
	if err != nil {
		logger.Error().
			Err(err).
			Str("backend_url", c.baseURL).
			Str("outcome", outcome).
			Dur("elapsed", time.Since(start)).
			Msg("API error fetching recent measurements")
		return Empty
	}

	logger.Debug().Int("bytes", len(body)).Dur("elapsed", time.Since(start)).Msg("Fetched recent measurements")
	return body
}

func (c *Client) fetch(ctx context.Context) (json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, metrics.FetchNetwork, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, metrics.FetchNetwork, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, metrics.FetchStatus, apperrors.Wrapf(apperrors.ErrBackendStatus, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, metrics.FetchNetwork, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, metrics.FetchParse, apperrors.Wrapf(apperrors.ErrBackendPayload, "body exceeds %d bytes", maxBodyBytes)
	}
	if !json.Valid(body) {
		return nil, metrics.FetchParse, apperrors.Wrapf(apperrors.ErrBackendPayload, "%d bytes", len(body))
	}
	return json.RawMessage(body), metrics.FetchSuccess, nil
}
