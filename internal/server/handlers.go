package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/career-mapper/internal/choropleth"
	"github.com/sells-group/career-mapper/internal/dataset"
	"github.com/sells-group/career-mapper/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, choropleth.ErrUnknownRegion), errors.Is(err, dataset.ErrUnknownStatistic):
		status = http.StatusNotFound
	case errors.Is(err, choropleth.ErrNoIndex):
		status = http.StatusNotImplemented
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pageData struct {
	MapsAPIKey string
	Statistics []model.Statistic
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Execute(w, pageData{
		MapsAPIKey: s.cfg.MapsAPIKey,
		Statistics: s.cfg.Catalog.All(),
	})
	if err != nil {
		zap.L().Error("render page failed", zap.Error(err))
	}
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Catalog.All())
}

type selectRequest struct {
	Statistic string `json:"statistic"`
}

type selectResponse struct {
	Token     uint64 `json:"token"`
	Statistic string `json:"statistic"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Statistic == "" {
		badRequest(w, "statistic is required")
		return
	}
	stat, err := s.cfg.Catalog.Lookup(req.Statistic)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, done := s.cfg.Session.Select(s.cfg.LoadContext, stat)
	go func() {
		res := <-done
		if res.Err != nil && res.Status != model.LoadStatusStale {
			zap.L().Warn("selection failed", zap.String("statistic", stat.ID), zap.Error(res.Err))
		}
	}()

	writeJSON(w, http.StatusAccepted, selectResponse{Token: token, Statistic: stat.ID})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Session.Snapshot())
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	fc := s.cfg.Session.Features(s.cfg.Geometry)
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

// regionView is the JSON form of a region; NaN values are reported as absent.
type regionView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	HasValue   bool        `json:"has_value"`
	Value      *float64    `json:"value,omitempty"`
	ValueLabel string      `json:"value_label,omitempty"`
	Hovered    bool        `json:"hovered"`
	Style      model.Style `json:"style"`
}

func (s *Server) regionView(id string) (regionView, error) {
	region, err := s.cfg.Session.Region(id)
	if err != nil {
		return regionView{}, err
	}
	style, err := s.cfg.Session.Style(id)
	if err != nil {
		return regionView{}, err
	}
	v := regionView{
		ID:       region.ID,
		Name:     region.Name,
		HasValue: region.Displayable(),
		Hovered:  region.Hovered,
		Style:    style,
	}
	if region.Displayable() {
		value := region.Value
		v.Value = &value
		v.ValueLabel = s.cfg.Session.FormatValue(value)
	}
	return v, nil
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	v, err := s.regionView(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type hoverResponse struct {
	Hover  *model.HoverInfo `json:"hover,omitempty"`
	Region *regionView      `json:"region,omitempty"`
}

func (s *Server) handleHoverIn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := s.cfg.Session.HoverIn(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.regionView(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hoverResponse{Hover: &info, Region: &v})
}

func (s *Server) handleHoverOut(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cfg.Session.HoverOut(id); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.regionView(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hoverResponse{Region: &v})
}

func (s *Server) handleHoverAt(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		badRequest(w, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		badRequest(w, "lng must be a number")
		return
	}

	info, found, err := s.cfg.Session.HoverAt(lat, lng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, hoverResponse{})
		return
	}
	v, err := s.regionView(info.RegionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hoverResponse{Hover: &info, Region: &v})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Cache == nil {
		writeJSON(w, http.StatusOK, map[string]string{"driver": "none"})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Cache.CacheStats())
}
