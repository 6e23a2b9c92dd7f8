package types

// MapMarker is one rendered point. Color and Glyph are derived from the
// activity kind; Halo distinguishes the stay marker.
type MapMarker struct {
	Name     string       `json:"name"`
	Location Coordinate   `json:"location"`
	Kind     ActivityKind `json:"kind"`
	Color    string       `json:"color"`
	Glyph    string       `json:"glyph"`
	Halo     bool         `json:"halo"`
}

// MapRenderModel is everything the map needs to draw one selected day.
// Exactly one of FitBounds or Center is set: FitBounds when the day's path is
// non-empty, otherwise Center plus Zoom.
type MapRenderModel struct {
	Markers   []MapMarker  `json:"markers"`
	Path      []Coordinate `json:"path"`
	FitBounds *BoundingBox `json:"fitBounds,omitempty"`
	Center    *Coordinate  `json:"center,omitempty"`
	Zoom      int          `json:"zoom,omitempty"`
}
