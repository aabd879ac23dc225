package model

import "time"

// Statistic is one selectable census variable.
type Statistic struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	URL   string `json:"url" yaml:"url" mapstructure:"url"`
}

// Row is one decoded [value, regionId] pair of a statistic resource.
type Row struct {
	Value    float64 `json:"value"`
	RegionID string  `json:"region_id"`
}

// LoadStatus describes where the current selection is in its lifecycle.
type LoadStatus string

const (
	LoadStatusIdle    LoadStatus = "idle"
	LoadStatusLoading LoadStatus = "loading"
	LoadStatusReady   LoadStatus = "ready"
	LoadStatusError   LoadStatus = "error"
	LoadStatusStale   LoadStatus = "stale"
)

// LoadResult summarizes one statistic load.
type LoadResult struct {
	LoadID    string        `json:"load_id"`
	Statistic string        `json:"statistic"`
	Token     uint64        `json:"token"`
	Status    LoadStatus    `json:"status"`
	Applied   int           `json:"applied"`
	Skipped   int           `json:"skipped"`
	Range     Range         `json:"range"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Legend holds the min/max labels shown next to the color key.
type Legend struct {
	Empty    bool    `json:"empty"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MinLabel string  `json:"min_label"`
	MaxLabel string  `json:"max_label"`
}
