package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/metrics"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/tracing"
)

const (
	// DefaultTimeout is the default request timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body size (10MB)
	MaxResponseSize = 10 * 1024 * 1024
)

// Config holds scraper client configuration
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Client calls the external scraping service. The service's contract is
// loose: it returns a list of raw item records under one of several payload
// shapes, or fails.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  ectologger.Logger
}

// NewClient creates a new scraper client
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// Scrape fetches raw items for a marketplace query.
func (c *Client) Scrape(ctx context.Context, marketplace, query string, maxResults int) ([]models.RawItem, error) {
	ctx, span := tracing.StartSpan(ctx, "scraper.Client.Scrape")
	defer span.End()

	params := url.Values{}
	params.Set("marketplace", marketplace)
	params.Set("query", query)
	if maxResults > 0 {
		params.Set("max_results", strconv.Itoa(maxResults))
	}

	endpoint := c.baseURL + "/scrape?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Errorf("Scrape request failed: %s %s", marketplace, query)
		metrics.ScrapeRequestsTotal.WithLabelValues(marketplace, "error").Inc()
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.ScrapeRequestsTotal.WithLabelValues(marketplace, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.ScrapeRequestDuration.WithLabelValues(marketplace).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scrape request returned status %d", resp.StatusCode)
	}

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("scrape response too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}

	items, err := DecodeItems(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"marketplace": marketplace,
		"query":       query,
		"items":       len(items),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Scrape completed")

	return items, nil
}

// itemListKeys are the envelope keys scraper deployments have shipped item
// lists under, in the order they are checked.
var itemListKeys = []string{"items", "price_entries", "prices"}

// DecodeItems tolerates the known response shapes: a bare JSON array, or an
// object wrapping the list under "items", "price_entries", or "prices"
// (optionally alongside an "average" summary field).
func DecodeItems(body []byte) ([]models.RawItem, error) {
	var asList []models.RawItem
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized scrape response shape: %w", err)
	}

	for _, key := range itemListKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var entries []any
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("invalid %q list in scrape response: %w", key, err)
		}
		// some deployments report bare price numbers; only record-shaped
		// entries are ingestable
		items := make([]models.RawItem, 0, len(entries))
		for _, entry := range entries {
			if record, ok := entry.(map[string]any); ok {
				items = append(items, models.RawItem(record))
			}
		}
		return items, nil
	}

	return nil, fmt.Errorf("scrape response carried no item list")
}
