package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/career-mapper/internal/model"
)

// Catalog is the ordered list of statistics offered to the user.
type Catalog struct {
	stats []model.Statistic
	byID  map[string]int
}

// NewCatalog indexes stats by id. Order is preserved.
func NewCatalog(stats []model.Statistic) *Catalog {
	c := &Catalog{stats: append([]model.Statistic(nil), stats...), byID: make(map[string]int, len(stats))}
	for i, s := range c.stats {
		c.byID[s.ID] = i
	}
	return c
}

// All returns the statistics in display order.
func (c *Catalog) All() []model.Statistic {
	return append([]model.Statistic(nil), c.stats...)
}

// Lookup returns the statistic with the given id.
func (c *Catalog) Lookup(id string) (model.Statistic, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Statistic{}, eris.Wrapf(ErrUnknownStatistic, "dataset: %q", id)
	}
	return c.stats[i], nil
}

// Default returns the statistic selected at startup.
func (c *Catalog) Default() (model.Statistic, bool) {
	if len(c.stats) == 0 {
		return model.Statistic{}, false
	}
	return c.stats[0], true
}

// WarmResult records the outcome of prefetching one statistic.
type WarmResult struct {
	Statistic string `json:"statistic" yaml:"statistic"`
	Rows      int    `json:"rows" yaml:"rows"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Warm fetches every statistic through src so later selections hit the cache.
// Individual failures are reported, not returned.
func Warm(ctx context.Context, src Source, stats []model.Statistic, concurrency int) ([]WarmResult, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	results := make([]WarmResult, len(stats))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, stat := range stats {
		g.Go(func() error {
			res := WarmResult{Statistic: stat.ID}
			rows, err := src.Rows(gctx, stat)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res.Error = err.Error()
				zap.L().Warn("dataset warm failed", zap.String("statistic", stat.ID), zap.Error(err))
			}
			res.Rows = len(rows)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "dataset: warm")
	}
	return results, nil
}
