package geometry

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/model"
)

// Two boxes side by side; box "06" has a hole in the middle.
const statesFixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"STATE": "06", "NAME": "California"},
     "geometry": {"type": "Polygon", "coordinates": [
       [[-124, 32], [-114, 32], [-114, 42], [-124, 42], [-124, 32]],
       [[-120, 36], [-118, 36], [-118, 38], [-120, 38], [-120, 36]]
     ]}},
    {"type": "Feature", "properties": {"STATE": "48", "NAME": "Texas"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[-106, 26], [-94, 26], [-94, 36], [-106, 36], [-106, 26]]]
     ]}},
    {"type": "Feature", "properties": {"NAME": "Nowhere"},
     "geometry": {"type": "Point", "coordinates": [0, 0]}},
    {"type": "Feature", "properties": {"STATE": "06", "NAME": "Duplicate"},
     "geometry": {"type": "Point", "coordinates": [1, 1]}}
  ]
}`

var opts = Options{IDProperty: "STATE", NameProperty: "NAME"}

func TestDecodeGeoJSON(t *testing.T) {
	regions, err := DecodeGeoJSON([]byte(statesFixture), opts)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, "06", regions[0].ID)
	assert.Equal(t, "California", regions[0].Name)
	assert.IsType(t, &geom.Polygon{}, regions[0].Geometry)
	assert.Equal(t, "48", regions[1].ID)
	assert.IsType(t, &geom.MultiPolygon{}, regions[1].Geometry)
}

func TestDecodeGeoJSON_FeatureIDAndNumericProperty(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":42,"properties":{"NAME":"A"},"geometry":{"type":"Point","coordinates":[0,0]}},
	  {"type":"Feature","id":"x","properties":{"NAME":"B"},"geometry":{"type":"Point","coordinates":[1,1]}}
	]}`
	regions, err := DecodeGeoJSON([]byte(data), Options{})
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "42", regions[0].ID)
	assert.Equal(t, "x", regions[1].ID)
	assert.Equal(t, "B", regions[1].Name)
}

func TestDecodeGeoJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not json", `{`, "decode feature collection"},
		{"wrong type", `{"type":"Feature"}`, "expected FeatureCollection"},
		{"no usable features", `{"type":"FeatureCollection","features":[]}`, "no usable features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGeoJSON([]byte(tt.data), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIndexLocate(t *testing.T) {
	regions, err := DecodeGeoJSON([]byte(statesFixture), opts)
	require.NoError(t, err)

	ix, err := NewIndex(regions)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	tests := []struct {
		name     string
		lat, lng float64
		want     string
		found    bool
	}{
		{"inside california", 34, -122, "06", true},
		{"inside texas", 30, -100, "48", true},
		{"inside the hole", 37, -119, "", false},
		{"ocean", 20, -150, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ix.Locate(tt.lat, tt.lng)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestEncode(t *testing.T) {
	regions, err := DecodeGeoJSON([]byte(statesFixture), opts)
	require.NoError(t, err)

	ca := *regions[0]
	ca.SetValue(12.5)
	ca.Hovered = true
	tx := *regions[1]
	tx.SetValue(math.NaN())

	fc := Encode([]model.Region{ca, tx}, func(r model.Region) model.Style {
		return model.Style{Visible: r.Displayable(), StrokeColor: "#fff"}
	}, opts)
	require.Len(t, fc.Features, 2)

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	var out struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "FeatureCollection", out.Type)

	assert.Equal(t, "06", out.Features[0].ID)
	assert.Equal(t, "California", out.Features[0].Properties["NAME"])
	assert.InDelta(t, 12.5, out.Features[0].Properties["census_variable"], 1e-9)
	assert.Equal(t, "hover", out.Features[0].Properties["state"])

	_, hasValue := out.Features[1].Properties["census_variable"]
	assert.False(t, hasValue, "NaN values are not encoded")
	style := out.Features[1].Properties["style"].(map[string]any)
	assert.Equal(t, false, style["visible"])
}

func TestLoadGeoJSONOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statesFixture))
	}))
	defer srv.Close()

	f := fetcher.NewRouter(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1}))
	regions, err := Load(context.Background(), f, srv.URL+"/states.js", opts)
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestLoadDownloadError(t *testing.T) {
	f := fetcher.NewRouter(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1}))
	_, err := Load(context.Background(), f, filepath.Join(t.TempDir(), "missing.geojson"), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geometry: download boundaries")
}

func writeShapefile(t *testing.T, path string) {
	t.Helper()
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("STATEFP", 2),
		shp.StringField("NAME", 32),
	}))

	// Clockwise outer ring followed by a counter-clockwise hole.
	poly := &shp.Polygon{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
			{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4},
		},
	}
	n := w.Write(poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "01"))
	require.NoError(t, w.WriteAttribute(int(n), 1, "Alabama"))
	w.Close()
}

func TestReadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")
	writeShapefile(t, path)

	regions, err := Load(context.Background(), fetcher.NewRouter(nil), path, Options{NameProperty: "NAME"})
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "01", regions[0].ID)
	assert.Equal(t, "Alabama", regions[0].Name)

	mp, ok := regions[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings(), "hole attaches to its outer ring")

	assert.True(t, Contains(mp, geom.Coord{2, 2}))
	assert.False(t, Contains(mp, geom.Coord{5, 5}))
}

func TestReadShapefile_MissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.shp")
	writeShapefile(t, path)

	_, err := ReadShapefile(path, Options{IDProperty: "GEOID"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "GEOID" not found`)
}

func TestIsShapefile(t *testing.T) {
	assert.True(t, isShapefile("/data/tl_2024_us_state.shp"))
	assert.True(t, isShapefile("file:///data/STATES.SHP"))
	assert.False(t, isShapefile("https://example.com/states.shp"))
	assert.False(t, isShapefile("./states.geojson"))
}
