// Package choropleth owns the map session: region values, the value range,
// region styling and the hover panel.
package choropleth

import (
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"
)

// HSL is a color as hue in degrees and saturation/lightness in percent.
type HSL [3]float64

// CSS renders the color as hsl(h,s%,l%).
func (c HSL) CSS() string {
	return "hsl(" + num(c[0]) + "," + num(c[1]) + "%," + num(c[2]) + "%)"
}

// Hex renders the color as #rrggbb.
func (c HSL) Hex() string {
	return colorful.Hsl(c[0], c[1]/100, c[2]/100).Clamped().Hex()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Palette is the two-stop color ramp plus fixed stroke settings.
type Palette struct {
	Low         HSL
	High        HSL
	StrokeColor string
	FillOpacity float64
}

// DefaultPalette returns the red-to-green ramp with white strokes.
func DefaultPalette() Palette {
	return Palette{
		Low:         HSL{5, 69, 54},
		High:        HSL{151, 83, 34},
		StrokeColor: "#fff",
		FillOpacity: 0.75,
	}
}

// NewPalette builds a Palette from configured channel slices.
func NewPalette(low, high []float64, strokeColor string, fillOpacity float64) (Palette, error) {
	if len(low) != 3 || len(high) != 3 {
		return Palette{}, eris.New("choropleth: palette colors need three HSL channels")
	}
	if fillOpacity < 0 || fillOpacity > 1 {
		return Palette{}, eris.Errorf("choropleth: fill opacity %v outside [0,1]", fillOpacity)
	}
	return Palette{
		Low:         HSL{low[0], low[1], low[2]},
		High:        HSL{high[0], high[1], high[2]},
		StrokeColor: strokeColor,
		FillOpacity: fillOpacity,
	}, nil
}

// At interpolates each channel linearly between Low (0) and High (1).
func (p Palette) At(delta float64) HSL {
	var c HSL
	for i := range c {
		c[i] = (p.High[i]-p.Low[i])*delta + p.Low[i]
	}
	return c
}
