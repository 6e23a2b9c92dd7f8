package types

// TimeWindow bounds the daily schedule, both ends as display strings
// (e.g. "09:00", "21:00").
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TripRequest is the planning intent: a named destination and/or drawn
// regions, plus the knobs forwarded verbatim to the generation collaborator.
type TripRequest struct {
	Destination     string        `json:"destination,omitempty"`
	Regions         []BoundingBox `json:"regions,omitempty"`
	Days            int           `json:"days"`
	Interests       []string      `json:"interests,omitempty"`
	Currency        Currency      `json:"currency"`
	TimeWindow      *TimeWindow   `json:"timeWindow,omitempty"`
	Customization   string        `json:"customization,omitempty"`
	BudgetCap       *float64      `json:"budgetCap,omitempty"`
	TargetMonth     string        `json:"targetMonth,omitempty"`
	IncludeStay     bool          `json:"includeStay"`
	PreselectedStay *Activity     `json:"preselectedStay,omitempty"`
}

// HasLocation reports whether the request names at least one place to plan
// for. Requests without one are rejected before any network call.
func (r TripRequest) HasLocation() bool {
	return r.Destination != "" || len(r.Regions) > 0
}

// EditTargetKind discriminates what an activity edit addresses. The stay
// location is not addressable by an array index, so it gets its own tag
// instead of a sentinel index.
type EditTargetKind string

const (
	EditTargetActivity EditTargetKind = "activity"
	EditTargetStay     EditTargetKind = "stay"
)

// EditTarget addresses either one activity slot of one day, or the plan's
// stay location.
type EditTarget struct {
	Kind          EditTargetKind `json:"kind"`
	DayIndex      int            `json:"dayIndex,omitempty"`
	ActivityIndex int            `json:"activityIndex,omitempty"`
}

// ActivityPatch is a partial activity update; nil fields are left untouched.
type ActivityPatch struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Location    *Coordinate   `json:"location,omitempty"`
	Time        *string       `json:"time,omitempty"`
	Kind        *ActivityKind `json:"kind,omitempty"`
	Price       *string       `json:"price,omitempty"`
	Items       *[]string     `json:"items,omitempty"`
}

// Apply overwrites the non-nil patch fields on a.
func (p ActivityPatch) Apply(a *Activity) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Kind != nil {
		a.Kind = *p.Kind
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.Items != nil {
		a.Items = append([]string(nil), (*p.Items)...)
	}
}
