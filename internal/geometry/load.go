package geometry

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/fetcher"
	"github.com/sells-group/career-mapper/internal/model"
)

const maxGeometryBytes = 64 << 20

// Load reads boundary regions from src. Local paths ending in .shp are read
// as shapefiles; everything else is fetched through f and decoded as GeoJSON.
func Load(ctx context.Context, f fetcher.Fetcher, src string, opts Options) ([]*model.Region, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "geometry"), zap.String("source", src))

	var (
		regions []*model.Region
		err     error
	)
	if isShapefile(src) {
		regions, err = ReadShapefile(strings.TrimPrefix(src, "file://"), opts)
	} else {
		regions, err = loadGeoJSON(ctx, f, src, opts)
	}
	if err != nil {
		return nil, err
	}

	log.Info("boundaries loaded",
		zap.Int("regions", len(regions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return regions, nil
}

func loadGeoJSON(ctx context.Context, f fetcher.Fetcher, src string, opts Options) ([]*model.Region, error) {
	body, err := f.Download(ctx, src)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: download boundaries")
	}
	defer body.Close() //nolint:errcheck

	data, err := fetcher.ReadAllLimited(body, maxGeometryBytes)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: read boundaries")
	}
	return DecodeGeoJSON(data, opts)
}

func isShapefile(src string) bool {
	if fetcher.IsRemote(src) {
		return false
	}
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme == "file" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".shp")
}
