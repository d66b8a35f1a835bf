// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendloom/internal/metrics"
	"github.com/tomtom215/trendloom/internal/models"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// HTTPConfig describes a JSON search adapter for one source.
//
// The endpoint is called as GET {Endpoint}?q={query}&limit={maxResults}
// and must answer with either a JSON array of raw item records or an object
// with an "items" array.
type HTTPConfig struct {
	Name       string
	Kind       Kind
	Endpoint   string
	QueryStyle QueryStyle
	Timeout    time.Duration
	Headers    map[string]string
}

// HTTPClient is a Client backed by a JSON search endpoint. The scraping
// itself lives behind that endpoint.
type HTTPClient struct {
	cfg    HTTPConfig
	base   *url.URL
	client *http.Client
}

// NewHTTPClient validates cfg and builds the client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("source name is required")
	}
	if _, err := ParseKind(string(cfg.Kind)); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.Endpoint)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("source %s: invalid endpoint %q", cfg.Name, cfg.Endpoint)
	}
	if cfg.QueryStyle == "" {
		cfg.QueryStyle = QueryText
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name implements Client.
func (c *HTTPClient) Name() string { return c.cfg.Name }

// Kind implements Client.
func (c *HTTPClient) Kind() Kind { return c.cfg.Kind }

// Fetch implements Client.
func (c *HTTPClient) Fetch(ctx context.Context, query string, maxResults int) ([]models.RawItem, error) {
	start := time.Now()
	items, err := c.fetch(ctx, query, maxResults)
	metrics.RecordSourceFetch(c.cfg.Name, fetchOutcome(err), time.Since(start))
	return items, err
}

func (c *HTTPClient) fetch(ctx context.Context, query string, maxResults int) ([]models.RawItem, error) {
	reqURL := *c.base
	q := reqURL.Query()
	q.Set("q", c.cfg.QueryStyle.Rewrite(query))
	if maxResults > 0 {
		q.Set("limit", strconv.Itoa(maxResults))
	}
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), http.NoBody)
	if err != nil {
		return nil, Unavailable(c.cfg.Name, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, Unavailable(c.cfg.Name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, ErrRateLimited)
	case resp.StatusCode == http.StatusNoContent:
		return []models.RawItem{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, Unavailable(c.cfg.Name, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, Unavailable(c.cfg.Name, fmt.Errorf("read response: %w", err))
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, Unavailable(c.cfg.Name, err)
	}
	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}
	return items, nil
}

// decodeItems accepts a bare array or an {"items": [...]} envelope.
func decodeItems(body []byte) ([]models.RawItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []models.RawItem{}, nil
	}

	if body[0] == '[' {
		var items []models.RawItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Items []models.RawItem `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Items == nil {
		envelope.Items = []models.RawItem{}
	}
	return envelope.Items, nil
}

func fetchOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, ErrRateLimited) {
		return "rate_limited"
	}
	return "failure"
}
