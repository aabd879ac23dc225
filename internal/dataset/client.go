// Package dataset fetches, validates and caches statistic resources and
// exposes the catalog of selectable statistics.
package dataset

import (
	"bytes"
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/cache"
	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/metrics"
	"github.com/sells-group/career-mapper/internal/model"
)

var (
	// ErrFetch marks a network or HTTP failure while retrieving a dataset.
	ErrFetch = eris.New("dataset: fetch failed")
	// ErrMalformedDataset marks a response that is not a header plus [value, id] rows.
	ErrMalformedDataset = eris.New("dataset: malformed response")
	// ErrUnknownStatistic is returned for ids missing from the catalog.
	ErrUnknownStatistic = eris.New("dataset: unknown statistic")
)

// maxResourceBytes bounds a single statistic resource.
const maxResourceBytes = 16 << 20

// Source yields the decoded rows of one statistic.
type Source interface {
	Rows(ctx context.Context, stat model.Statistic) ([]model.Row, error)
}

// Client fetches statistic resources through a Fetcher and keeps validated
// payloads in a Cache.
type Client struct {
	fetcher  fetcher.Fetcher
	cache    cache.Cache
	maxBytes int64
}

// NewClient creates a Client. A nil cache disables caching.
func NewClient(f fetcher.Fetcher, c cache.Cache) *Client {
	if c == nil {
		c = cache.Noop{}
	}
	return &Client{fetcher: f, cache: c, maxBytes: maxResourceBytes}
}

// Rows returns the decoded rows for stat, header excluded.
func (c *Client) Rows(ctx context.Context, stat model.Statistic) ([]model.Row, error) {
	log := zap.L().With(zap.String("component", "dataset"), zap.String("statistic", stat.ID))
	start := time.Now()

	if payload, ok := c.cached(ctx, stat.URL); ok {
		rows, err := DecodeRows(ctx, bytes.NewReader(payload))
		if err == nil {
			log.Debug("dataset served from cache", zap.Int("rows", len(rows)))
			return rows, nil
		}
		log.Warn("cached dataset failed to decode, refetching", zap.Error(err))
	}

	payload, err := c.fetch(ctx, stat.URL)
	if err != nil {
		metrics.DatasetFetchTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rows, err := DecodeRows(ctx, bytes.NewReader(payload))
	metrics.DatasetFetchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.DatasetFetchTotal.WithLabelValues("malformed").Inc()
		return nil, err
	}
	metrics.DatasetFetchTotal.WithLabelValues("ok").Inc()

	if err := c.cache.Set(ctx, stat.URL, payload); err != nil {
		log.Warn("dataset cache write failed", zap.Error(err))
	}

	log.Info("dataset fetched",
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(payload)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rows, nil
}

// CacheStats reports the underlying cache statistics.
func (c *Client) CacheStats() cache.Stats {
	return c.cache.Stats()
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	payload, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		zap.L().Warn("dataset cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case !ok:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return payload, true
	}
}

func (c *Client) fetch(ctx context.Context, src string) ([]byte, error) {
	body, err := c.fetcher.Download(ctx, src)
	if err != nil {
		return nil, eris.Wrapf(ErrFetch, "dataset: download %s: %v", src, err)
	}
	defer body.Close() //nolint:errcheck

	payload, err := fetcher.ReadAllLimited(body, c.maxBytes)
	if err != nil {
		return nil, eris.Wrapf(ErrFetch, "dataset: read %s: %v", src, err)
	}
	return payload, nil
}
