package geometry

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/model"
)

// ReadShapefile reads polygon regions from a local TIGER-style shapefile.
// The id field defaults to STATEFP when opts.IDProperty is empty.
func ReadShapefile(path string, opts Options) ([]*model.Region, error) {
	opts = opts.withDefaults()
	idField := opts.IDProperty
	if idField == "" {
		idField = "STATEFP"
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idField)
	if idIdx < 0 {
		return nil, eris.Errorf("geometry: shapefile field %q not found", idField)
	}
	nameIdx := fieldIndex(reader, opts.NameProperty)

	var regions []*model.Region
	seen := make(map[string]bool)
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		id := strings.TrimSpace(reader.Attribute(idIdx))
		if id == "" || seen[id] {
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			continue
		}

		var name string
		if nameIdx >= 0 {
			name = strings.TrimSpace(reader.Attribute(nameIdx))
		}
		seen[id] = true
		regions = append(regions, &model.Region{ID: id, Name: name, Geometry: g})
	}

	if len(regions) == 0 {
		return nil, eris.Errorf("geometry: no polygons in %s", path)
	}
	return regions, nil
}

// fieldIndex returns the index of a named attribute field, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a MultiPolygon.
// Clockwise parts start a new polygon; counter-clockwise parts are holes
// of the polygon before them.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("geometry: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current != nil && xy.IsRingCounterClockwise(geom.XY, flat) {
			if err := current.Push(ring); err != nil {
				zap.L().Debug("geometry: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		flush()
		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("geometry: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			current = nil
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
