// Package gateway provides read-only lookups against public medical data
// services: MyDisease.info, PubMed and ClinicalTrials.gov. Responses are
// cached so repeated lookups during a shift do not hammer the upstreams.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/florence/florence/internal/platform/cache"
	"github.com/florence/florence/internal/platform/metrics"
)

const defaultTimeout = 10 * time.Second

// Config carries the upstream base URLs and cache policy.
type Config struct {
	DiseaseBaseURL string
	PubMedBaseURL  string
	TrialsBaseURL  string
	CacheTTL       time.Duration
}

// Client performs the upstream calls. It is safe for concurrent use.
type Client struct {
	http   *http.Client
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
	cfg    Config
}

func NewClient(cfg Config, c cache.Cache, logger zerolog.Logger) *Client {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Client{
		http:   &http.Client{Timeout: defaultTimeout},
		cache:  c,
		ttl:    cfg.CacheTTL,
		logger: logger,
		cfg:    cfg,
	}
}

// getJSON performs a GET and decodes the JSON body into out. Non-2xx
// responses are errors; bodies are drained and closed.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// cached wraps an upstream fetch with the cache. source labels the metrics;
// key must be unique per query. The fetch result is JSON-encoded for storage.
func (c *Client) cached(ctx context.Context, source, key string, out interface{}, fetch func() (interface{}, error)) error {
	if c.cache != nil {
		if b, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if err := json.Unmarshal(b, out); err == nil {
				metrics.LookupCacheHits.WithLabelValues(source).Inc()
				return nil
			}
		}
	}
	metrics.LookupCacheMisses.WithLabelValues(source).Inc()

	fresh, err := fetch()
	if err != nil {
		return err
	}
	b, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", source, err)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("source", source).Msg("cache write failed")
		}
	}
	return json.Unmarshal(b, out)
}
