package geometry

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/career-mapper/internal/model"
)

const (
	dimensions  = 2
	minChildren = 4
	maxChildren = 16
	// tolerance pads degenerate bounds and point queries, in degrees.
	tolerance = 1e-9
)

// boundedRegion wraps a region for R-tree indexing.
type boundedRegion struct {
	id   string
	g    geom.T
	rect *rtreego.Rect
}

func (b *boundedRegion) Bounds() *rtreego.Rect {
	return b.rect
}

// Index resolves map coordinates to the region that contains them.
// It is immutable after construction and safe for concurrent use.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex builds an R-tree over the bounding boxes of regions.
// Regions without geometry are left out.
func NewIndex(regions []*model.Region) (*Index, error) {
	items := make([]rtreego.Spatial, 0, len(regions))
	for _, r := range regions {
		if r.Geometry == nil {
			continue
		}
		rect, err := boundsRect(r.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: index region %s", r.ID)
		}
		items = append(items, &boundedRegion{id: r.ID, g: r.Geometry, rect: rect})
	}
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, item := range items {
		tree.Insert(item)
	}
	return &Index{tree: tree, size: len(items)}, nil
}

// Len returns the number of indexed regions.
func (ix *Index) Len() int {
	return ix.size
}

// Locate returns the id of the region containing (lat, lng).
func (ix *Index) Locate(lat, lng float64) (string, bool) {
	query := rtreego.Point{lng, lat}.ToRect(tolerance)
	coord := geom.Coord{lng, lat}
	for _, hit := range ix.tree.SearchIntersect(query) {
		b, ok := hit.(*boundedRegion)
		if !ok {
			continue
		}
		if Contains(b.g, coord) {
			return b.id, true
		}
	}
	return "", false
}

func boundsRect(g geom.T) (*rtreego.Rect, error) {
	b := g.Bounds()
	minX, minY, maxX, maxY := b.Min(0), b.Min(1), b.Max(0), b.Max(1)
	if minX > maxX || minY > maxY {
		return nil, eris.New("geometry: empty bounds")
	}
	return rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX + tolerance, maxY - minY + tolerance},
	)
}

// Contains reports whether c lies inside a Polygon or MultiPolygon,
// honouring holes.
func Contains(g geom.T, c geom.Coord) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, c)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), c) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, c geom.Coord) bool {
	n := p.NumLinearRings()
	if n == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < n; i++ {
		if xy.IsPointInRing(p.Layout(), c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
