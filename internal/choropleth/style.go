package choropleth

import "github.com/sells-group/career-mapper/internal/model"

const (
	strokeWeight        = 0.5
	strokeWeightHovered = 2
	zIndex              = 1
	zIndexHovered       = 2
)

// StyleRegion computes the rendering style of r against rng.
// Regions without a usable value are invisible.
func StyleRegion(r model.Region, rng model.Range, p Palette) model.Style {
	var delta float64
	if r.Displayable() {
		delta = rng.Delta(r.Value)
	}
	color := p.At(delta)

	s := model.Style{
		StrokeWeight: strokeWeight,
		StrokeColor:  p.StrokeColor,
		ZIndex:       zIndex,
		FillColor:    color.CSS(),
		FillHex:      color.Hex(),
		FillOpacity:  p.FillOpacity,
		Visible:      r.Displayable(),
	}
	if r.Hovered {
		s.StrokeWeight = strokeWeightHovered
		s.ZIndex = zIndexHovered
	}
	return s
}
