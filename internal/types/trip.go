package types

import (
	"time"
)

// ActivityKind is the closed set of activity categories. Rendering and
// costing logic dispatch on the tag, never on free-form strings.
type ActivityKind string

const (
	ActivityKindFood     ActivityKind = "food"
	ActivityKindLandmark ActivityKind = "landmark"
	ActivityKindActivity ActivityKind = "activity"
	ActivityKindRelax    ActivityKind = "relax"
	ActivityKindStay     ActivityKind = "stay"
)

// Valid reports whether k is one of the known activity kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityKindFood, ActivityKindLandmark, ActivityKindActivity, ActivityKindRelax, ActivityKindStay:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
)

// Coordinate is a point on Earth's surface. Treated as immutable once created.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a rectangular region in degrees. Boxes are simple
// (non-wraparound) rectangles; boxes crossing the ±180° meridian are not
// normalized and their behaviour is undefined.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether the box has positive latitudinal extent.
func (b BoundingBox) Valid() bool {
	return b.North > b.South
}

// Contains reports whether c lies inside the box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat <= b.North && c.Lat >= b.South && c.Lng <= b.East && c.Lng >= b.West
}

type GroundingLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Activity is one scheduled stop in a day. Time is a display string, not a
// parsed timestamp; schedule order is array order. TravelDistance and
// TravelTime describe the leg from the previous activity to this one and are
// stale after any reorder until a logistics refresh lands.
type Activity struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Location       Coordinate      `json:"location"`
	Time           string          `json:"time"`
	Kind           ActivityKind    `json:"kind"`
	Price          string          `json:"price,omitempty"`
	Items          []string        `json:"items,omitempty"`
	TravelDistance string          `json:"travelDistance,omitempty"`
	TravelTime     string          `json:"travelTime,omitempty"`
	GroundingLinks []GroundingLink `json:"groundingLinks,omitempty"`
}

// DayPlan holds one day's schedule. DayNumber is 1-based and contiguous
// across TripPlan.Itinerary.
type DayPlan struct {
	DayNumber  int        `json:"dayNumber"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// TripPlan is the itinerary document. StayLocation, when present, is a
// virtual activity bracketing every day and is never a member of any
// DayPlan.Activities list. TotalEstimatedCost excludes the stay.
type TripPlan struct {
	ID                string     `json:"id"`
	Destination       string     `json:"destination"`
	Summary           string     `json:"summary"`
	Itinerary         []DayPlan  `json:"itinerary"`
	CenterCoordinates Coordinate `json:"centerCoordinates"`
	Currency          Currency   `json:"currency"`
	TotalEstimatedCost float64   `json:"totalEstimatedCost"`
	WeatherAdvisory   string     `json:"weatherAdvisory"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	StayLocation      *Activity  `json:"stayLocation,omitempty"`
	PostcardURL       string     `json:"postcardUrl,omitempty"`
}

// Clone returns a deep copy of the plan so read-side consumers never alias
// the live document owned by the planner.
func (p *TripPlan) Clone() *TripPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Itinerary = make([]DayPlan, len(p.Itinerary))
	for i, day := range p.Itinerary {
		d := day
		d.Activities = cloneActivities(day.Activities)
		cp.Itinerary[i] = d
	}
	if p.StayLocation != nil {
		stay := cloneActivity(*p.StayLocation)
		cp.StayLocation = &stay
	}
	if p.CreatedAt != nil {
		t := *p.CreatedAt
		cp.CreatedAt = &t
	}
	return &cp
}

func cloneActivities(activities []Activity) []Activity {
	out := make([]Activity, len(activities))
	for i, a := range activities {
		out[i] = cloneActivity(a)
	}
	return out
}

func cloneActivity(a Activity) Activity {
	if a.Items != nil {
		a.Items = append([]string(nil), a.Items...)
	}
	if a.GroundingLinks != nil {
		a.GroundingLinks = append([]GroundingLink(nil), a.GroundingLinks...)
	}
	return a
}

// SavedTripPlan is one archive entry: a plan snapshot stamped at save time.
type SavedTripPlan struct {
	Plan    TripPlan  `json:"plan"`
	SavedAt time.Time `json:"savedAt"`
}
