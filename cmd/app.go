package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/career-mapper/internal/cache"
	"github.com/sells-group/career-mapper/internal/choropleth"
	"github.com/sells-group/career-mapper/internal/config"
	"github.com/sells-group/career-mapper/internal/dataset"
	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/geometry"
)

// appEnv holds the components shared by the subcommands.
type appEnv struct {
	Fetcher  fetcher.Fetcher
	Cache    cache.Cache
	Client   *dataset.Client
	Catalog  *dataset.Catalog
	Geometry geometry.Options
}

// initApp wires fetcher, cache, dataset client and catalog from config.
func initApp(c *config.Config) (*appEnv, error) {
	f := fetcher.NewRouter(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
		RateLimit:  rate.Limit(c.Fetch.RateLimit),
		Burst:      c.Fetch.Burst,
	}))

	dc, err := cache.New(cache.Options{
		Driver:        c.Cache.Driver,
		MaxEntries:    c.Cache.MaxEntries,
		TTL:           time.Duration(c.Cache.TTLMinutes) * time.Minute,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init cache")
	}

	return &appEnv{
		Fetcher: f,
		Cache:   dc,
		Client:  dataset.NewClient(f, dc),
		Catalog: dataset.NewCatalog(c.Statistics),
		Geometry: geometry.Options{
			IDProperty:   c.Map.IDProperty,
			NameProperty: c.Map.NameProperty,
		},
	}, nil
}

// Close releases the cache connection.
func (a *appEnv) Close() {
	if err := a.Cache.Close(); err != nil {
		zap.L().Warn("close cache", zap.Error(err))
	}
}

// newSession loads the boundaries and builds a Session with its hit index.
func (a *appEnv) newSession(ctx context.Context, c *config.Config) (*choropleth.Session, error) {
	regions, err := geometry.Load(ctx, a.Fetcher, c.Map.GeometryURL, a.Geometry)
	if err != nil {
		return nil, eris.Wrap(err, "load boundaries")
	}
	index, err := geometry.NewIndex(regions)
	if err != nil {
		return nil, eris.Wrap(err, "index boundaries")
	}

	palette, err := choropleth.NewPalette(c.Map.LowColor, c.Map.HighColor, c.Map.StrokeColor, c.Map.FillOpacity)
	if err != nil {
		return nil, err
	}
	format, err := choropleth.NewFormatter(c.Map.Locale)
	if err != nil {
		return nil, err
	}

	return choropleth.NewSession(regions, a.Client, choropleth.Options{
		Palette:   palette,
		Formatter: format,
		Locator:   index,
	}), nil
}
