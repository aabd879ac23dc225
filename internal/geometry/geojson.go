// Package geometry loads state boundary shapes, resolves points to regions
// and encodes styled regions back to GeoJSON.
package geometry

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/model"
)

// Options names the feature properties that carry region identity.
type Options struct {
	IDProperty   string
	NameProperty string
}

func (o Options) withDefaults() Options {
	if o.NameProperty == "" {
		o.NameProperty = "NAME"
	}
	return o
}

type rawFeature struct {
	ID         json.RawMessage `json:"id"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// DecodeGeoJSON parses a FeatureCollection into regions keyed by
// opts.IDProperty, or by the feature id when no property is configured.
// Features without an id or with an unreadable geometry are skipped;
// duplicate ids keep the first feature.
func DecodeGeoJSON(data []byte, opts Options) ([]*model.Region, error) {
	opts = opts.withDefaults()

	var fc rawCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geometry: decode feature collection")
	}
	if fc.Type != "FeatureCollection" {
		return nil, eris.Errorf("geometry: expected FeatureCollection, got %q", fc.Type)
	}

	regions := make([]*model.Region, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	var skipped int

	for i, f := range fc.Features {
		id := featureID(f, opts.IDProperty)
		if id == "" || seen[id] {
			skipped++
			continue
		}

		var g geom.T
		if err := geojson.Unmarshal(f.Geometry, &g); err != nil || g == nil {
			zap.L().Debug("geometry: skipping feature with unreadable geometry",
				zap.Int("feature", i), zap.String("id", id), zap.Error(err))
			skipped++
			continue
		}

		seen[id] = true
		regions = append(regions, &model.Region{
			ID:       id,
			Name:     propertyString(f.Properties[opts.NameProperty]),
			Geometry: g,
		})
	}

	if skipped > 0 {
		zap.L().Debug("geometry: skipped features", zap.Int("skipped", skipped))
	}
	if len(regions) == 0 {
		return nil, eris.New("geometry: no usable features")
	}
	return regions, nil
}

func featureID(f rawFeature, idProperty string) string {
	if idProperty != "" {
		return propertyString(f.Properties[idProperty])
	}
	if len(f.ID) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(f.ID, &v); err != nil {
		return ""
	}
	return propertyString(v)
}

func propertyString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// StyleFunc returns the style of one region.
type StyleFunc func(r model.Region) model.Style

// Encode builds a FeatureCollection of regions with their current value and
// style attached as properties.
func Encode(regions []model.Region, style StyleFunc, opts Options) *geojson.FeatureCollection {
	opts = opts.withDefaults()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(regions))}
	for _, r := range regions {
		props := map[string]any{
			opts.NameProperty: r.Name,
			"style":           style(r),
			"state":           hoverState(r.Hovered),
		}
		if r.Displayable() {
			props["census_variable"] = r.Value
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   r.Geometry,
			Properties: props,
		})
	}
	return fc
}

func hoverState(hovered bool) string {
	if hovered {
		return "hover"
	}
	return "normal"
}
