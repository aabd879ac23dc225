package choropleth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/sells-group/career-mapper/internal/dataset"
	"github.com/sells-group/career-mapper/internal/geometry"
	"github.com/sells-group/career-mapper/internal/metrics"
	"github.com/sells-group/career-mapper/internal/model"
)

var (
	// ErrUnknownRegion is returned for region ids not on the map.
	ErrUnknownRegion = eris.New("choropleth: unknown region")
	// ErrStaleLoad marks a load superseded by a later selection or clear.
	ErrStaleLoad = eris.New("choropleth: load superseded")
	// ErrNoIndex is returned by HoverAt when no Locator was configured.
	ErrNoIndex = eris.New("choropleth: no spatial index")
)

// Locator resolves a map coordinate to a region id.
type Locator interface {
	Locate(lat, lng float64) (string, bool)
}

// Options configures a Session.
type Options struct {
	Palette   Palette
	Formatter *Formatter
	Locator   Locator
}

// State is a consistent snapshot of the session for display.
type State struct {
	Statistic *model.Statistic `json:"statistic"`
	Status    model.LoadStatus `json:"status"`
	Message   string           `json:"message,omitempty"`
	Token     uint64           `json:"token"`
	Legend    model.Legend     `json:"legend"`
	Hover     model.HoverInfo  `json:"hover"`
	Regions   int              `json:"regions"`
	WithValue int              `json:"with_value"`
	LastLoad  *LoadSummary     `json:"last_load,omitempty"`
}

// LoadSummary is the JSON-safe view of the last applied load.
type LoadSummary struct {
	LoadID    string           `json:"load_id"`
	Statistic string           `json:"statistic"`
	Token     uint64           `json:"token"`
	Status    model.LoadStatus `json:"status"`
	Applied   int              `json:"applied"`
	Skipped   int              `json:"skipped"`
	Duration  string           `json:"duration"`
	Error     string           `json:"error,omitempty"`
}

// Session is the single map held by the process. All methods are safe for
// concurrent use.
type Session struct {
	src     dataset.Source
	palette Palette
	format  *Formatter
	locator Locator

	mu      sync.RWMutex
	regions map[string]*model.Region
	order   []string
	rng     model.Range
	active  *model.Statistic
	status  model.LoadStatus
	message string
	legend  model.Legend
	hover   model.HoverInfo
	hovered string
	seq     uint64
	cancel  context.CancelFunc
	last    *LoadSummary
}

// NewSession creates a Session over regions. Region order is kept for listing.
// Duplicate ids keep the first region.
func NewSession(regions []*model.Region, src dataset.Source, opts Options) *Session {
	if opts.Formatter == nil {
		opts.Formatter = &Formatter{tag: language.AmericanEnglish}
	}
	if opts.Palette == (Palette{}) {
		opts.Palette = DefaultPalette()
	}

	s := &Session{
		src:     src,
		palette: opts.Palette,
		format:  opts.Formatter,
		locator: opts.Locator,
		regions: make(map[string]*model.Region, len(regions)),
		order:   make([]string, 0, len(regions)),
		rng:     model.NewRange(),
		status:  model.LoadStatusIdle,
		legend:  model.Legend{Empty: true},
	}
	for _, r := range regions {
		if _, dup := s.regions[r.ID]; dup {
			continue
		}
		s.regions[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s
}

// Clear detaches every value, resets the range and hides the hover panel.
// An in-flight load is cancelled and its result discarded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.cancelLocked()
	s.clearLocked()
	s.active = nil
	s.status = model.LoadStatusIdle
	s.message = ""
}

func (s *Session) clearLocked() {
	s.rng = model.NewRange()
	for _, r := range s.regions {
		r.ClearValue()
	}
	s.legend = model.Legend{Empty: true}
	s.hover.PanelVisible = false
}

func (s *Session) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Select clears the map and starts loading stat in the background. It
// returns the selection token and a channel that yields exactly one result. ctx bounds the fetch, so pass
// a context that outlives the caller when the load should continue after it
// returns. A later Select or Clear supersedes this one: its fetch is
// cancelled and its result comes back with status stale.
func (s *Session) Select(ctx context.Context, stat model.Statistic) (uint64, <-chan model.LoadResult) {
	fctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.seq++
	token := s.seq
	s.cancelLocked()
	s.cancel = cancel
	s.clearLocked()
	active := stat
	s.active = &active
	s.status = model.LoadStatusLoading
	s.message = ""
	s.mu.Unlock()

	zap.L().Debug("statistic selected",
		zap.String("statistic", stat.ID),
		zap.Uint64("token", token),
	)

	out := make(chan model.LoadResult, 1)
	go func() {
		defer close(out)
		defer cancel()
		start := time.Now()
		rows, err := s.src.Rows(fctx, stat)
		out <- s.finish(token, stat, rows, err, start)
	}()
	return token, out
}

// Load selects stat and waits for the result.
func (s *Session) Load(ctx context.Context, stat model.Statistic) (model.LoadResult, error) {
	_, done := s.Select(ctx, stat)
	select {
	case res := <-done:
		return res, res.Err
	case <-ctx.Done():
		return model.LoadResult{Statistic: stat.ID, Status: model.LoadStatusError, Err: ctx.Err()}, eris.Wrap(ctx.Err(), "choropleth: load")
	}
}

func (s *Session) finish(token uint64, stat model.Statistic, rows []model.Row, fetchErr error, start time.Time) model.LoadResult {
	res := model.LoadResult{
		LoadID:    uuid.New().String(),
		Statistic: stat.ID,
		Token:     token,
		Range:     model.NewRange(),
	}
	log := zap.L().With(
		zap.String("component", "choropleth"),
		zap.String("statistic", stat.ID),
		zap.String("load_id", res.LoadID),
		zap.Uint64("token", token),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		res.Status = model.LoadStatusStale
		res.Err = eris.Wrapf(ErrStaleLoad, "choropleth: token %d superseded by %d", token, s.seq)
		res.Duration = time.Since(start)
		metrics.LoadsTotal.WithLabelValues(stat.ID, string(res.Status)).Inc()
		log.Debug("discarding superseded load", zap.Uint64("current", s.seq))
		return res
	}
	s.cancel = nil

	if fetchErr != nil {
		res.Status = model.LoadStatusError
		res.Err = fetchErr
		res.Duration = time.Since(start)
		s.status = model.LoadStatusError
		s.message = failureMessage(stat, fetchErr)
		s.last = summarize(res)
		metrics.LoadsTotal.WithLabelValues(stat.ID, string(res.Status)).Inc()
		log.Warn("statistic load failed", zap.String("message", s.message), zap.Error(fetchErr))
		return res
	}

	s.applyLocked(stat, rows, &res)
	res.Status = model.LoadStatusReady
	res.Duration = time.Since(start)
	s.status = model.LoadStatusReady
	s.message = ""
	s.last = summarize(res)

	metrics.LoadsTotal.WithLabelValues(stat.ID, string(res.Status)).Inc()
	if res.Skipped > 0 {
		metrics.RowsSkippedTotal.WithLabelValues(stat.ID).Add(float64(res.Skipped))
	}
	log.Info("statistic loaded",
		zap.Int("applied", res.Applied),
		zap.Int("skipped", res.Skipped),
		zap.Float64("min", res.Range.Min),
		zap.Float64("max", res.Range.Max),
		zap.Duration("elapsed", res.Duration),
	)
	return res
}

// applyLocked attaches rows to regions. Every row widens the range, matched
// or not; later rows for the same region overwrite earlier ones.
func (s *Session) applyLocked(stat model.Statistic, rows []model.Row, res *model.LoadResult) {
	s.clearLocked()
	for _, row := range rows {
		s.rng.Observe(row.Value)
		r, ok := s.regions[row.RegionID]
		if !ok {
			res.Skipped++
			continue
		}
		r.SetValue(row.Value)
		res.Applied++
	}
	res.Range = s.rng
	s.legend = s.format.Legend(s.rng)
}

func failureMessage(stat model.Statistic, err error) string {
	label := stat.Label
	if label == "" {
		label = stat.ID
	}
	if errors.Is(err, dataset.ErrMalformedDataset) {
		return fmt.Sprintf("%q returned malformed data", label)
	}
	return fmt.Sprintf("could not load %q", label)
}

func summarize(res model.LoadResult) *LoadSummary {
	sum := &LoadSummary{
		LoadID:    res.LoadID,
		Statistic: res.Statistic,
		Token:     res.Token,
		Status:    res.Status,
		Applied:   res.Applied,
		Skipped:   res.Skipped,
		Duration:  res.Duration.String(),
	}
	if res.Err != nil {
		sum.Error = res.Err.Error()
	}
	return sum
}

// Range returns the current value range.
func (s *Session) Range() model.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rng
}

// Region returns a copy of the region with the given id.
func (s *Session) Region(id string) (model.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return model.Region{}, eris.Wrapf(ErrUnknownRegion, "choropleth: %q", id)
	}
	return *r, nil
}

// Regions returns copies of all regions in load order.
func (s *Session) Regions() []model.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Region, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.regions[id])
	}
	return out
}

// Style returns the current style of one region.
func (s *Session) Style(id string) (model.Style, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[id]
	if !ok {
		return model.Style{}, eris.Wrapf(ErrUnknownRegion, "choropleth: %q", id)
	}
	return StyleRegion(*r, s.rng, s.palette), nil
}

// Styles returns the current style of every region keyed by id.
func (s *Session) Styles() map[string]model.Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Style, len(s.regions))
	for id, r := range s.regions {
		out[id] = StyleRegion(*r, s.rng, s.palette)
	}
	return out
}

// Features encodes every region with its current style.
func (s *Session) Features(opts geometry.Options) *geojson.FeatureCollection {
	s.mu.RLock()
	rng := s.rng
	regions := make([]model.Region, 0, len(s.order))
	for _, id := range s.order {
		regions = append(regions, *s.regions[id])
	}
	s.mu.RUnlock()

	return geometry.Encode(regions, func(r model.Region) model.Style {
		return StyleRegion(r, rng, s.palette)
	}, opts)
}

// Snapshot returns the display state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Status:  s.status,
		Message: s.message,
		Token:   s.seq,
		Legend:  s.legend,
		Hover:   s.hover,
		Regions: len(s.regions),
	}
	if s.active != nil {
		active := *s.active
		st.Statistic = &active
	}
	if s.last != nil {
		last := *s.last
		st.LastLoad = &last
	}
	for _, r := range s.regions {
		if r.HasValue {
			st.WithValue++
		}
	}
	return st
}

// FormatValue renders v with the session locale.
func (s *Session) FormatValue(v float64) string {
	return s.format.Format(v)
}
