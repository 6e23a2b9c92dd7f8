package maprender

import (
	"math"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

const (
	defaultZoom = 12
	stayGlyph   = "H"
)

// kindColor maps every activity kind to its marker color. The switch is
// exhaustive on purpose: adding a kind without a color is a bug.
func kindColor(kind types.ActivityKind) string {
	switch kind {
	case types.ActivityKindFood:
		return "#f59e0b"
	case types.ActivityKindLandmark:
		return "#3b82f6"
	case types.ActivityKindActivity:
		return "#10b981"
	case types.ActivityKindRelax:
		return "#8b5cf6"
	case types.ActivityKindStay:
		return "#ef4444"
	default:
		return "#6b7280"
	}
}

// BuildModel derives the map render model for one itinerary day. It is a
// pure projection of the plan document: same plan and day in, same model out.
func BuildModel(plan *types.TripPlan, dayIndex int) types.MapRenderModel {
	model := types.MapRenderModel{
		Markers: []types.MapMarker{},
		Path:    []types.Coordinate{},
	}
	if plan == nil || dayIndex < 0 || dayIndex >= len(plan.Itinerary) {
		return emptyModel(plan, model)
	}

	day := plan.Itinerary[dayIndex]
	for _, a := range day.Activities {
		model.Markers = append(model.Markers, types.MapMarker{
			Name:     a.Name,
			Location: a.Location,
			Kind:     a.Kind,
			Color:    kindColor(a.Kind),
		})
		model.Path = append(model.Path, a.Location)
	}

	// The stay brackets the day: leave in the morning, return at night.
	if plan.StayLocation != nil {
		stay := types.MapMarker{
			Name:     plan.StayLocation.Name,
			Location: plan.StayLocation.Location,
			Kind:     types.ActivityKindStay,
			Color:    kindColor(types.ActivityKindStay),
			Glyph:    stayGlyph,
			Halo:     true,
		}
		model.Markers = append(model.Markers, stay)
		if len(model.Path) > 0 {
			model.Path = append([]types.Coordinate{stay.Location}, model.Path...)
			model.Path = append(model.Path, stay.Location)
		}
	}

	if len(model.Path) == 0 {
		return emptyModel(plan, model)
	}
	bounds := pathBounds(model.Path)
	model.FitBounds = &bounds
	return model
}

// emptyModel centers on the plan when the day has nothing to draw.
func emptyModel(plan *types.TripPlan, model types.MapRenderModel) types.MapRenderModel {
	if plan != nil {
		center := plan.CenterCoordinates
		model.Center = &center
		model.Zoom = defaultZoom
	}
	return model
}

func pathBounds(path []types.Coordinate) types.BoundingBox {
	bounds := types.BoundingBox{
		North: -math.MaxFloat64,
		South: math.MaxFloat64,
		East:  -math.MaxFloat64,
		West:  math.MaxFloat64,
	}
	for _, p := range path {
		bounds.North = math.Max(bounds.North, p.Lat)
		bounds.South = math.Min(bounds.South, p.Lat)
		bounds.East = math.Max(bounds.East, p.Lng)
		bounds.West = math.Min(bounds.West, p.Lng)
	}
	return bounds
}
