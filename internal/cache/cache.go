// Package cache keeps decoded statistic datasets between selections.
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Cache stores opaque payloads by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Stats() Stats
	Close() error
}

// Stats contains cache performance statistics.
type Stats struct {
	Driver     string  `json:"driver"`
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}

// Options selects and sizes a cache backend.
type Options struct {
	Driver        string
	MaxEntries    int
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New builds the cache backend named by opts.Driver.
func New(opts Options) (Cache, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemory(opts.MaxEntries, opts.TTL), nil
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.TTL), nil
	case "none":
		return Noop{}, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", opts.Driver)
	}
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error { return nil }
func (Noop) Stats() Stats { return Stats{Driver: "none"} }
func (Noop) Close() error { return nil }
