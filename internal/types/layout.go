package types

// LayoutState is the split-pane state for one session. PaneWidth is the left
// (itinerary) pane width in pixels; container geometry is registered when a
// resize gesture begins.
type LayoutState struct {
	PaneWidth      float64 `json:"paneWidth"`
	IsResizing     bool    `json:"isResizing"`
	ContainerLeft  float64 `json:"containerLeft"`
	ContainerWidth float64 `json:"containerWidth"`
}
