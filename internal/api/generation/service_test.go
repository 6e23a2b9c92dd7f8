package generation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-weaver/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

// MockAIProvider is a mock implementation of AIProvider
type MockAIProvider struct {
	mock.Mock
}

func (m *MockAIProvider) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, prompt, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func (m *MockAIProvider) GenerateImage(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func (m *MockAIProvider) Model() string {
	return "test-model"
}

func textResponse(txt string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: txt}}}},
		},
	}
}

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			}}},
		},
	}
}

func setupGenerationServiceTest() (*ServiceImpl, *MockAIProvider) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockAI := new(MockAIProvider)
	service := NewServiceImpl(mockAI, logger)
	return service, mockAI
}

const planJSON = `{
	"destination": "Lisbon",
	"summary": "Two days in Lisbon",
	"centerCoordinates": {"lat": 38.72, "lng": -9.14},
	"totalEstimatedCost": 320,
	"stayLocation": {"name": "Alfama Guesthouse", "location": {"lat": 38.71, "lng": -9.13}},
	"itinerary": [
		{"dayNumber": 7, "theme": "Old Town", "activities": [
			{"name": "Castle", "kind": "landmark", "location": {"lat": 38.714, "lng": -9.133}},
			{"name": "Alfama Guesthouse", "kind": "stay", "location": {"lat": 38.71, "lng": -9.13}},
			{"name": "Fado Dinner", "kind": "food", "location": {"lat": 38.712, "lng": -9.128}}
		]},
		{"dayNumber": 9, "theme": "Belem", "activities": [
			{"name": "Tower", "location": {"lat": 38.691, "lng": -9.216}}
		]}
	]
}`

func TestGenerationServiceImpl_GeneratePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("success normalizes the document", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		// First call is the itinerary prompt, second the weather prompt; the
		// matcher keys off the prompt text.
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(p string) bool {
			return !isWeatherPrompt(p)
		}), mock.Anything).Return(textResponse("```json\n"+planJSON+"\n```"), nil).Once()
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(isWeatherPrompt), mock.Anything).
			Return(textResponse(`{"weather_advisory": "Warm and sunny"}`), nil).Once()

		plan, err := service.GeneratePlan(ctx, types.TripRequest{Destination: "Lisbon", Days: 2, Currency: types.CurrencyUSD})
		require.NoError(t, err)

		// Day numbers are renumbered contiguously regardless of model output.
		assert.Equal(t, 1, plan.Itinerary[0].DayNumber)
		assert.Equal(t, 2, plan.Itinerary[1].DayNumber)
		// The stay is never a member of a day list.
		for _, day := range plan.Itinerary {
			for _, a := range day.Activities {
				assert.NotEqual(t, "Alfama Guesthouse", a.Name)
			}
		}
		assert.Equal(t, types.ActivityKindStay, plan.StayLocation.Kind)
		// Missing kinds default rather than fail.
		assert.Equal(t, types.ActivityKindActivity, plan.Itinerary[1].Activities[0].Kind)
		assert.Equal(t, "Warm and sunny", plan.WeatherAdvisory)
		assert.NotEmpty(t, plan.ID)
		require.NotNil(t, plan.CreatedAt)
		mockAI.AssertExpectations(t)
	})

	t.Run("weather failure is non-fatal", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(p string) bool {
			return !isWeatherPrompt(p)
		}), mock.Anything).Return(textResponse(planJSON), nil).Once()
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(isWeatherPrompt), mock.Anything).
			Return(nil, errors.New("model overloaded")).Once()

		plan, err := service.GeneratePlan(ctx, types.TripRequest{Destination: "Lisbon", Days: 2})
		require.NoError(t, err)
		assert.Empty(t, plan.WeatherAdvisory)
		mockAI.AssertExpectations(t)
	})

	t.Run("day count mismatch fails", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(planJSON), nil).Twice()

		_, err := service.GeneratePlan(ctx, types.TripRequest{Destination: "Lisbon", Days: 5})
		require.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("preselected stay overrides the generated one", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(p string) bool {
			return !isWeatherPrompt(p)
		}), mock.Anything).Return(textResponse(planJSON), nil).Once()
		mockAI.On("GenerateResponse", mock.Anything, mock.MatchedBy(isWeatherPrompt), mock.Anything).
			Return(textResponse(`{"weather_advisory": ""}`), nil).Once()

		chosen := &types.Activity{Name: "Bairro Alto Hotel", Kind: types.ActivityKindFood}
		plan, err := service.GeneratePlan(ctx, types.TripRequest{Destination: "Lisbon", Days: 2, PreselectedStay: chosen})
		require.NoError(t, err)
		assert.Equal(t, "Bairro Alto Hotel", plan.StayLocation.Name)
		assert.Equal(t, types.ActivityKindStay, plan.StayLocation.Kind)
	})

	t.Run("malformed response fails", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse("I could not produce a plan today."), nil).Twice()

		_, err := service.GeneratePlan(ctx, types.TripRequest{Destination: "Lisbon", Days: 2})
		require.ErrorIs(t, err, ErrGeneration)
	})
}

func TestGenerationServiceImpl_RefreshLogistics(t *testing.T) {
	ctx := context.Background()
	activities := []types.Activity{
		{Name: "Castle", Kind: types.ActivityKindLandmark},
		{Name: "Fado Dinner", Kind: types.ActivityKindFood},
	}

	t.Run("success", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(`{"activities": [
				{"name": "Castle", "time": "09:00", "travelTime": "10 min", "travelDistance": "1.2 km"},
				{"name": "Fado Dinner", "time": "19:00", "travelTime": "15 min", "travelDistance": "2.0 km"}
			]}`), nil).Once()

		refreshed, err := service.RefreshLogistics(ctx, activities, "Lisbon", nil, "09:00")
		require.NoError(t, err)
		require.Len(t, refreshed, 2)
		assert.Equal(t, "10 min", refreshed[0].TravelTime)
		mockAI.AssertExpectations(t)
	})

	t.Run("cardinality mismatch", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(`{"activities": [{"name": "Castle", "time": "09:00"}]}`), nil).Once()

		_, err := service.RefreshLogistics(ctx, activities, "Lisbon", nil, "09:00")
		require.ErrorIs(t, err, ErrLogistics)
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()

		refreshed, err := service.RefreshLogistics(ctx, nil, "Lisbon", nil, "")
		require.NoError(t, err)
		assert.Empty(t, refreshed)
		mockAI.AssertNotCalled(t, "GenerateResponse", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGenerationServiceImpl_GenerateReplacement(t *testing.T) {
	ctx := context.Background()
	current := types.Activity{Name: "Tram Ride", Kind: types.ActivityKindActivity}
	excluded := []string{"Castle", "Tram Ride", "Fado Dinner"}

	t.Run("success", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(`{"activity": {"name": "Oceanarium", "kind": "activity"}}`), nil).Once()

		replacement, err := service.GenerateReplacement(ctx, current, "Lisbon", "Old Town", types.CurrencyUSD, excluded)
		require.NoError(t, err)
		assert.Equal(t, "Oceanarium", replacement.Name)
		mockAI.AssertExpectations(t)
	})

	t.Run("rejects an excluded name regardless of case", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(`{"activity": {"name": "FADO DINNER", "kind": "food"}}`), nil).Once()

		_, err := service.GenerateReplacement(ctx, current, "Lisbon", "Old Town", types.CurrencyUSD, excluded)
		require.ErrorIs(t, err, ErrReplacement)
	})

	t.Run("invalid kind falls back to the replaced activity's kind", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(textResponse(`{"activity": {"name": "Oceanarium", "kind": "aquarium"}}`), nil).Once()

		replacement, err := service.GenerateReplacement(ctx, current, "Lisbon", "Old Town", types.CurrencyUSD, excluded)
		require.NoError(t, err)
		assert.Equal(t, types.ActivityKindActivity, replacement.Kind)
	})
}

func TestGenerationServiceImpl_GeneratePoster(t *testing.T) {
	ctx := context.Background()
	plan := &types.TripPlan{ID: "p1", Destination: "Lisbon"}

	t.Run("success returns a data url", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateImage", mock.Anything, mock.Anything).
			Return(imageResponse("image/png", []byte{0x89, 0x50}), nil).Once()

		url, err := service.GeneratePoster(ctx, plan)
		require.NoError(t, err)
		assert.Contains(t, url, "data:image/png;base64,")
		mockAI.AssertExpectations(t)
	})

	t.Run("no image data", func(t *testing.T) {
		service, mockAI := setupGenerationServiceTest()
		mockAI.On("GenerateImage", mock.Anything, mock.Anything).
			Return(textResponse("sorry"), nil).Once()

		_, err := service.GeneratePoster(ctx, plan)
		require.ErrorIs(t, err, ErrPoster)
	})
}

func TestCleanJSONResponse(t *testing.T) {
	t.Run("strips code fences", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, cleanJSONResponse("```json\n{\"a\": 1}\n```"))
	})

	t.Run("extracts the object from surrounding prose", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, cleanJSONResponse(`Here you go: {"a": 1} Enjoy!`))
	})

	t.Run("passes through text with no object", func(t *testing.T) {
		assert.Equal(t, "no json here", cleanJSONResponse("no json here"))
	})
}

// isWeatherPrompt keys the mock off the weather prompt's distinctive wording.
func isWeatherPrompt(prompt string) bool {
	return strings.Contains(prompt, "weather advisory")
}
