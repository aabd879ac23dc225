package model

// Style is the per-feature rendering instruction handed to the map surface.
type Style struct {
	StrokeWeight float64 `json:"strokeWeight"`
	StrokeColor  string  `json:"strokeColor"`
	ZIndex       int     `json:"zIndex"`
	FillColor    string  `json:"fillColor"`
	FillHex      string  `json:"fillHex"`
	FillOpacity  float64 `json:"fillOpacity"`
	Visible      bool    `json:"visible"`
}

// HoverInfo is the floating data box plus legend caret state.
type HoverInfo struct {
	RegionID     string  `json:"region_id,omitempty"`
	Name         string  `json:"name,omitempty"`
	HasValue     bool    `json:"has_value"`
	Value        float64 `json:"value"`
	ValueLabel   string  `json:"value_label,omitempty"`
	Percent      float64 `json:"percent"`
	PanelVisible bool    `json:"panel_visible"`
}
