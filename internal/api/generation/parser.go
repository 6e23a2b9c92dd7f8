package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	// Remove markdown code block markers
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}

	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}

	response = strings.TrimSpace(response)

	// Extract the JSON object from a response that might contain
	// explanatory text around it.
	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}

	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}

	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}

func parsePlan(jsonStr string) (*types.TripPlan, error) {
	var planData struct {
		Destination        string           `json:"destination"`
		Summary            string           `json:"summary"`
		CenterCoordinates  types.Coordinate `json:"centerCoordinates"`
		TotalEstimatedCost float64          `json:"totalEstimatedCost"`
		StayLocation       *types.Activity  `json:"stayLocation"`
		Itinerary          []types.DayPlan  `json:"itinerary"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &planData); err != nil {
		return nil, fmt.Errorf("failed to parse trip plan JSON: %w", err)
	}
	return &types.TripPlan{
		Destination:        planData.Destination,
		Summary:            planData.Summary,
		CenterCoordinates:  planData.CenterCoordinates,
		TotalEstimatedCost: planData.TotalEstimatedCost,
		StayLocation:       planData.StayLocation,
		Itinerary:          planData.Itinerary,
	}, nil
}

func parseWeatherAdvisory(jsonStr string) (string, error) {
	var weatherData struct {
		WeatherAdvisory string `json:"weather_advisory"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &weatherData); err != nil {
		return "", fmt.Errorf("failed to parse weather advisory JSON: %w", err)
	}
	return weatherData.WeatherAdvisory, nil
}

func parseActivities(jsonStr string) ([]types.Activity, error) {
	var activityData struct {
		Activities []types.Activity `json:"activities"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &activityData); err != nil {
		return nil, fmt.Errorf("failed to parse activities JSON: %w", err)
	}
	return activityData.Activities, nil
}

func parseActivity(jsonStr string) (*types.Activity, error) {
	var activityData struct {
		Activity *types.Activity `json:"activity"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &activityData); err != nil {
		return nil, fmt.Errorf("failed to parse activity JSON: %w", err)
	}
	if activityData.Activity == nil {
		return nil, fmt.Errorf("no activity object in response")
	}
	return activityData.Activity, nil
}
