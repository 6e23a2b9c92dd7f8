package types

// GesturePhase is the drawing state machine position for a region session.
type GesturePhase string

const (
	GestureIdle       GesturePhase = "idle"
	GestureAnchoring  GesturePhase = "anchoring"
	GesturePreviewing GesturePhase = "previewing"
)

// RegionState is the snapshot of one region-selection session. Preview is
// only set while a drag is in flight.
type RegionState struct {
	Selections        []BoundingBox `json:"selections"`
	DrawingMode       bool          `json:"drawingMode"`
	Phase             GesturePhase  `json:"phase"`
	Anchor            *Coordinate   `json:"anchor,omitempty"`
	Preview           *BoundingBox  `json:"preview,omitempty"`
	StagedDestination string        `json:"stagedDestination,omitempty"`
}

// PlaceResult is one geocoding hit.
type PlaceResult struct {
	DisplayName string       `json:"displayName"`
	Lat         float64      `json:"lat"`
	Lon         float64      `json:"lon"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// PointerPhase tags one event of the drawing gesture.
type PointerPhase string

const (
	PointerDown PointerPhase = "down"
	PointerMove PointerPhase = "move"
	PointerUp   PointerPhase = "up"
)
