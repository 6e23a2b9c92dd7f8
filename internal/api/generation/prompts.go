package generation

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

const activityShape = `{
            "name": "Name of the activity or place",
            "description": "2-3 sentence description of the activity",
            "location": {"lat": <float>, "lng": <float>},
            "time": "display time, e.g. 09:30 AM",
            "kind": "one of: food, landmark, activity, relax, stay",
            "price": "estimated price in the requested currency, e.g. $25",
            "items": ["optional short checklist entries"],
            "travelDistance": "distance from the previous activity, e.g. 2.3 km",
            "travelTime": "travel time from the previous activity, e.g. 15 min"
            }`

func buildPlanPrompt(req types.TripRequest) string {
	var b strings.Builder

	if req.Destination != "" {
		fmt.Fprintf(&b, "Plan a %d-day trip to %s.", req.Days, req.Destination)
	} else {
		fmt.Fprintf(&b, "Plan a %d-day trip inside the following geographic regions (degrees):", req.Days)
		for _, r := range req.Regions {
			fmt.Fprintf(&b, "\n    - north %.5f, south %.5f, east %.5f, west %.5f", r.North, r.South, r.East, r.West)
		}
		b.WriteString("\nPick a fitting destination name for the covered area.")
	}
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, "\nTraveller interests: [%s].", strings.Join(req.Interests, ", "))
	}
	if req.TimeWindow != nil {
		fmt.Fprintf(&b, "\nSchedule activities between %s and %s each day.", req.TimeWindow.Start, req.TimeWindow.End)
	}
	if req.BudgetCap != nil {
		fmt.Fprintf(&b, "\nKeep the total estimated cost under %.0f %s.", *req.BudgetCap, req.Currency)
	}
	if req.TargetMonth != "" {
		fmt.Fprintf(&b, "\nThe trip takes place in %s.", req.TargetMonth)
	}
	if req.Customization != "" {
		fmt.Fprintf(&b, "\nAdditional traveller notes: %s", req.Customization)
	}

	stayPart := ""
	if req.IncludeStay {
		if req.PreselectedStay != nil {
			stayPart = fmt.Sprintf(`
        Use this pre-selected accommodation as the "stayLocation": %s at (%.5f, %.5f). Do not list it inside any day's activities.`,
				req.PreselectedStay.Name, req.PreselectedStay.Location.Lat, req.PreselectedStay.Location.Lng)
		} else {
			stayPart = `
        Also recommend one accommodation as "stayLocation" (kind "stay"). Do not list it inside any day's activities and exclude its cost from totalEstimatedCost.`
		}
	}

	fmt.Fprintf(&b, `
        All prices use %s.%s
        Return the response STRICTLY as a JSON object with:
        {
        "destination": "resolved destination name",
        "summary": "1 short paragraph describing the trip",
        "centerCoordinates": {"lat": <float>, "lng": <float>},
        "totalEstimatedCost": <float, excluding accommodation>,
        "stayLocation": <activity object or null>,
        "itinerary": [
            {
            "dayNumber": <int, 1-based>,
            "theme": "short theme for the day",
            "activities": [
            %s
            ]
            }
        ]
        }`, req.Currency, stayPart, activityShape)

	return b.String()
}

func buildWeatherPrompt(destination, targetMonth string) string {
	monthPart := "for the current season"
	if targetMonth != "" {
		monthPart = "for " + targetMonth
	}
	return fmt.Sprintf(`
        Write a 1-2 sentence weather advisory for travellers visiting %s %s.
        Return the response STRICTLY as a JSON object with:
        {
        "weather_advisory": "the advisory text"
        }`, destination, monthPart)
}

func buildLogisticsPrompt(activities []types.Activity, destination string, stay *types.Activity, startTime string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following activities in %s are now visited in exactly this order:\n", destination)
	if stay != nil {
		fmt.Fprintf(&b, "The day starts and ends at the accommodation %s at (%.5f, %.5f).\n", stay.Name, stay.Location.Lat, stay.Location.Lng)
	}
	for i, a := range activities {
		fmt.Fprintf(&b, "    %d. %s at (%.5f, %.5f)\n", i+1, a.Name, a.Location.Lat, a.Location.Lng)
	}
	if startTime != "" {
		fmt.Fprintf(&b, "The first activity starts at %s.\n", startTime)
	}
	fmt.Fprintf(&b, `
        Recompute a realistic visit time plus travel distance and travel time from the previous stop for EVERY activity, keeping this exact order and count.
        Return the response STRICTLY as a JSON object with:
        {
        "activities": [
            %s
        ]
        }`, activityShape)
	return b.String()
}

func buildReplacementPrompt(current types.Activity, destination, theme string, currency types.Currency, excluded []string) string {
	return fmt.Sprintf(`
        Suggest exactly one alternative activity in %s to replace "%s" (%s) on a day themed "%s".
        The alternative must fit the same time slot (%s) and must NOT be any of these already planned activities: [%s].
        Prices use %s.
        Return the response STRICTLY as a JSON object with:
        {
        "activity": %s
        }`, destination, current.Name, current.Kind, theme, current.Time, strings.Join(excluded, "; "), currency, activityShape)
}

func buildPosterPrompt(plan *types.TripPlan) string {
	themes := make([]string, 0, len(plan.Itinerary))
	for _, day := range plan.Itinerary {
		if day.Theme != "" {
			themes = append(themes, day.Theme)
		}
	}
	return fmt.Sprintf(
		"Create a vintage travel postcard poster for %s. Feature the destination name prominently. Visual motifs: %s. Warm colours, clean composition, no extra text.",
		plan.Destination, strings.Join(themes, ", "))
}
