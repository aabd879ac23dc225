package choropleth

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/career-mapper/internal/metrics"
	"github.com/sells-group/career-mapper/internal/model"
)

// HoverIn marks the region hovered and, if it carries a value, fills and
// shows the data panel with the legend caret at its percent position.
func (s *Session) HoverIn(id string) (model.HoverInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := s.hoverInLocked(id)
	if err != nil {
		return model.HoverInfo{}, err
	}
	metrics.HoverTotal.WithLabelValues("in").Inc()
	return info, nil
}

func (s *Session) hoverInLocked(id string) (model.HoverInfo, error) {
	r, ok := s.regions[id]
	if !ok {
		return model.HoverInfo{}, eris.Wrapf(ErrUnknownRegion, "choropleth: %q", id)
	}
	if s.hovered != "" && s.hovered != id {
		if prev, ok := s.regions[s.hovered]; ok {
			prev.Hovered = false
		}
	}
	r.Hovered = true
	s.hovered = id

	if !r.Displayable() {
		s.hover = model.HoverInfo{RegionID: id, Name: r.Name}
		return s.hover, nil
	}
	s.hover = model.HoverInfo{
		RegionID:     id,
		Name:         r.Name,
		HasValue:     true,
		Value:        r.Value,
		ValueLabel:   s.format.Format(r.Value),
		Percent:      s.rng.Percent(r.Value),
		PanelVisible: true,
	}
	return s.hover, nil
}

// HoverOut clears the hovered mark of the region. The panel keeps showing
// the last hovered region.
func (s *Session) HoverOut(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[id]
	if !ok {
		return eris.Wrapf(ErrUnknownRegion, "choropleth: %q", id)
	}
	r.Hovered = false
	if s.hovered == id {
		s.hovered = ""
	}
	metrics.HoverTotal.WithLabelValues("out").Inc()
	return nil
}

// HoverAt moves the hover to the region under (lat, lng). The previously
// hovered region is released; found is false when no region is under the
// point.
func (s *Session) HoverAt(lat, lng float64) (info model.HoverInfo, found bool, err error) {
	if s.locator == nil {
		return model.HoverInfo{}, false, ErrNoIndex
	}
	id, ok := s.locator.Locate(lat, lng)

	s.mu.Lock()
	defer s.mu.Unlock()
	metrics.HoverTotal.WithLabelValues("point").Inc()

	if !ok {
		if prev, exists := s.regions[s.hovered]; exists {
			prev.Hovered = false
		}
		s.hovered = ""
		return model.HoverInfo{}, false, nil
	}
	info, err = s.hoverInLocked(id)
	if err != nil {
		return model.HoverInfo{}, false, err
	}
	return info, true, nil
}

// Hovered returns the id of the hovered region, if any.
func (s *Session) Hovered() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hovered, s.hovered != ""
}
