package model

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Region is one state polygon on the map carrying the attached statistic.
type Region struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Geometry geom.T  `json:"-"`
	HasValue bool    `json:"has_value"`
	Value    float64 `json:"value"`
	Hovered  bool    `json:"hovered"`
}

// SetValue attaches a statistic value. NaN is kept as-is so the region renders hidden.
func (r *Region) SetValue(v float64) {
	r.HasValue = true
	r.Value = v
}

// ClearValue detaches the statistic value.
func (r *Region) ClearValue() {
	r.HasValue = false
	r.Value = 0
}

// Displayable reports whether the region has a usable numeric value.
func (r Region) Displayable() bool {
	return r.HasValue && !math.IsNaN(r.Value)
}

// Range is the running min/max of the loaded statistic values.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewRange returns a Range reset to sentinel extremes.
func NewRange() Range {
	return Range{Min: math.MaxFloat64, Max: -math.MaxFloat64}
}

// Observe widens the range to include v. NaN never moves the bounds.
func (r *Range) Observe(v float64) {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
}

// Empty reports whether no value has been observed since the last reset.
func (r Range) Empty() bool {
	return r.Min > r.Max
}

// Delta returns the normalized position of v within the range.
// Empty or zero-width ranges yield 0.
func (r Range) Delta(v float64) float64 {
	if r.Empty() || r.Max == r.Min {
		return 0
	}
	return (v - r.Min) / (r.Max - r.Min)
}

// Percent returns Delta scaled to [0,100].
func (r Range) Percent(v float64) float64 {
	return r.Delta(v) * 100
}
