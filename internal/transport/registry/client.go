// Package registry fetches raw studies from the ClinicalTrials.gov v2 API.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/metrics"
	"github.com/Josconicme/trial-insight/internal/normalize"
)

// DefaultBaseURL is the public v2 endpoint.
const DefaultBaseURL = "https://clinicaltrials.gov/api/v2"

// Config holds the registry client settings.
type Config struct {
	BaseURL    string
	PageSize   int
	MaxPages   int // 0 = follow nextPageToken until it disappears
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client pages through /studies.
type Client struct {
	http       *http.Client
	baseURL    string
	pageSize   int
	maxPages   int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// New creates a registry client.
func New(cfg *Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    base,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

type studiesPage struct {
	Studies       []normalize.RawStudy `json:"studies"`
	NextPageToken string               `json:"nextPageToken"`
}

// FetchAll returns every study the registry serves, or an error. A partial
// list is never returned.
func (c *Client) FetchAll(ctx context.Context) ([]normalize.RawStudy, error) {
	var (
		all   []normalize.RawStudy
		token string
	)
	for page := 1; ; page++ {
		p, err := c.fetchPage(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("registry page %d: %w", page, err)
		}
		all = append(all, p.Studies...)

		c.logger.Debug("Registry page fetched",
			zap.Int("page", page),
			zap.Int("studies", len(p.Studies)),
			zap.Int("total", len(all)),
		)

		token = p.NextPageToken
		if token == "" || (c.maxPages > 0 && page >= c.maxPages) {
			break
		}
	}
	return all, nil
}

func (c *Client) pageURL(token string) string {
	q := url.Values{}
	q.Set("format", "json")
	if c.pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	if token != "" {
		q.Set("pageToken", token)
	}
	return c.baseURL + "/studies?" + q.Encode()
}

func (c *Client) fetchPage(ctx context.Context, token string) (*studiesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(token), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: HTTP 429: %s", domain.ErrRateLimited, body)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, resp.StatusCode, body)
	}

	var p studiesPage
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode studies: %w", domain.ErrUpstream, err)
	}
	if p.Studies == nil {
		return nil, fmt.Errorf("%w: response has no studies array", domain.ErrUpstream)
	}
	return &p, nil
}

// do sends req, retrying HTTP 429 with exponential backoff. The last 429
// response is returned once retries run out.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			metrics.RegistryRequestsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		metrics.RegistryRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		backoff := c.retryDelay << attempt
		c.logger.Warn("Registry rate limited, backing off",
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
