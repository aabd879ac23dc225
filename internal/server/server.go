// Package server exposes the map session over HTTP.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"

	"github.com/sells-group/career-mapper/internal/cache"
	"github.com/sells-group/career-mapper/internal/choropleth"
	"github.com/sells-group/career-mapper/internal/dataset"
	"github.com/sells-group/career-mapper/internal/geometry"
	"github.com/sells-group/career-mapper/internal/metrics"
)

//go:embed web/index.html
var webFS embed.FS

// CacheStatter reports dataset cache statistics.
type CacheStatter interface {
	CacheStats() cache.Stats
}

// Config wires the server to the session and its collaborators.
type Config struct {
	Session        *choropleth.Session
	Catalog        *dataset.Catalog
	Cache          CacheStatter
	Geometry       geometry.Options
	MapsAPIKey     string
	AllowedOrigins []string
	// LoadContext bounds background loads started by POST /api/selection.
	// Request contexts end with the response, so it must outlive them.
	LoadContext context.Context
}

// Server handles the map API and serves the page.
type Server struct {
	cfg  Config
	page *template.Template
}

// New parses the embedded page and returns a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Session == nil || cfg.Catalog == nil {
		return nil, eris.New("server: session and catalog are required")
	}
	if cfg.LoadContext == nil {
		cfg.LoadContext = context.Background()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	page, err := template.ParseFS(webFS, "web/index.html")
	if err != nil {
		return nil, eris.Wrap(err, "server: parse page template")
	}
	return &Server{cfg: cfg, page: page}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/statistics", s.handleStatistics)
		r.Post("/selection", s.handleSelect)
		r.Get("/state", s.handleState)
		r.Get("/regions", s.handleRegions)
		r.Get("/regions/{id}", s.handleRegion)
		r.Post("/regions/{id}/hover", s.handleHoverIn)
		r.Delete("/regions/{id}/hover", s.handleHoverOut)
		r.Get("/hover", s.handleHoverAt)
		r.Get("/cache/stats", s.handleCacheStats)
	})
	return r
}
