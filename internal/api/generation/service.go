package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-weaver/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

const defaultTemperature float32 = 0.7

// Sentinel errors for the collaborator contract. Callers branch on these
// with errors.Is.
var (
	ErrGeneration  = errors.New("plan generation failed")
	ErrLogistics   = errors.New("logistics refresh failed")
	ErrReplacement = errors.New("activity replacement failed")
	ErrPoster      = errors.New("poster generation failed")
)

var (
	outcomeSuccess = metric.WithAttributes(attribute.String("outcome", "success"))
	outcomeFailure = metric.WithAttributes(attribute.String("outcome", "failure"))
)

var _ Service = (*ServiceImpl)(nil)

// AIProvider is the slice of the genai client the generation service needs.
type AIProvider interface {
	GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImage(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	Model() string
}

// Service is the stateless bridge to the generative collaborator.
type Service interface {
	GeneratePlan(ctx context.Context, req types.TripRequest) (*types.TripPlan, error)
	RefreshLogistics(ctx context.Context, activities []types.Activity, destination string, stay *types.Activity, startTime string) ([]types.Activity, error)
	GenerateReplacement(ctx context.Context, current types.Activity, destination, theme string, currency types.Currency, excluded []string) (*types.Activity, error)
	GeneratePoster(ctx context.Context, plan *types.TripPlan) (string, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	aiClient AIProvider
}

func NewServiceImpl(aiClient AIProvider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		aiClient: aiClient,
	}
}

func (s *ServiceImpl) GeneratePlan(ctx context.Context, req types.TripRequest) (*types.TripPlan, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "GeneratePlan", trace.WithAttributes(
		attribute.String("trip.destination", req.Destination),
		attribute.Int("trip.days", req.Days),
		attribute.Int("trip.regions", len(req.Regions)),
	))
	defer span.End()

	startTime := time.Now()
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](defaultTemperature)}

	// The itinerary and the weather advisory are independent prompts, so
	// they run concurrently.
	var plan *types.TripPlan
	var advisory string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prompt := buildPlanPrompt(req)
		txt, err := s.generateText(gctx, prompt, config)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		parsed, err := parsePlan(cleanJSONResponse(txt))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		plan = parsed
		return nil
	})
	g.Go(func() error {
		destination := req.Destination
		if destination == "" {
			destination = "the selected regions"
		}
		txt, err := s.generateText(gctx, buildWeatherPrompt(destination, req.TargetMonth), config)
		if err != nil {
			// The advisory is an enhancement, not the plan itself.
			s.logger.WarnContext(gctx, "Weather advisory generation failed", slog.Any("error", err))
			return nil
		}
		parsed, err := parseWeatherAdvisory(cleanJSONResponse(txt))
		if err != nil {
			s.logger.WarnContext(gctx, "Weather advisory parse failed", slog.Any("error", err))
			return nil
		}
		advisory = parsed
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Plan generation failed")
		metrics.Get().PlanGenerationsTotal.Add(ctx, 1, outcomeFailure)
		return nil, err
	}

	if err := normalizePlan(plan, req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Plan normalization failed")
		metrics.Get().PlanGenerationsTotal.Add(ctx, 1, outcomeFailure)
		return nil, err
	}
	plan.WeatherAdvisory = advisory

	metrics.Get().PlanGenerationsTotal.Add(ctx, 1, outcomeSuccess)
	metrics.Get().PlanGenerationDurationSeconds.Record(ctx, time.Since(startTime).Seconds())
	span.SetAttributes(attribute.String("plan.id", plan.ID))
	span.SetStatus(codes.Ok, "Plan generated")
	return plan, nil
}

func (s *ServiceImpl) RefreshLogistics(ctx context.Context, activities []types.Activity, destination string, stay *types.Activity, startTime string) ([]types.Activity, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "RefreshLogistics", trace.WithAttributes(
		attribute.String("trip.destination", destination),
		attribute.Int("activities.count", len(activities)),
	))
	defer span.End()

	if len(activities) == 0 {
		return activities, nil
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](defaultTemperature)}
	txt, err := s.generateText(ctx, buildLogisticsPrompt(activities, destination, stay, startTime), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Logistics generation failed")
		return nil, fmt.Errorf("%w: %w", ErrLogistics, err)
	}

	refreshed, err := parseActivities(cleanJSONResponse(txt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Logistics parse failed")
		return nil, fmt.Errorf("%w: %w", ErrLogistics, err)
	}
	// Contract: same ordinal length and order as the input.
	if len(refreshed) != len(activities) {
		err := fmt.Errorf("%w: expected %d activities, got %d", ErrLogistics, len(activities), len(refreshed))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Logistics cardinality mismatch")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Logistics refreshed")
	return refreshed, nil
}

func (s *ServiceImpl) GenerateReplacement(ctx context.Context, current types.Activity, destination, theme string, currency types.Currency, excluded []string) (*types.Activity, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "GenerateReplacement", trace.WithAttributes(
		attribute.String("trip.destination", destination),
		attribute.String("activity.name", current.Name),
		attribute.Int("excluded.count", len(excluded)),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](defaultTemperature)}
	txt, err := s.generateText(ctx, buildReplacementPrompt(current, destination, theme, currency, excluded), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Replacement generation failed")
		return nil, fmt.Errorf("%w: %w", ErrReplacement, err)
	}

	replacement, err := parseActivity(cleanJSONResponse(txt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Replacement parse failed")
		return nil, fmt.Errorf("%w: %w", ErrReplacement, err)
	}
	// Contract: never hand back a name the itinerary already contains.
	for _, name := range excluded {
		if strings.EqualFold(replacement.Name, name) {
			err := fmt.Errorf("%w: collaborator returned excluded activity %q", ErrReplacement, replacement.Name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Replacement collides with excluded name")
			return nil, err
		}
	}
	if !replacement.Kind.Valid() {
		replacement.Kind = current.Kind
	}

	span.SetStatus(codes.Ok, "Replacement generated")
	return replacement, nil
}

func (s *ServiceImpl) GeneratePoster(ctx context.Context, plan *types.TripPlan) (string, error) {
	ctx, span := otel.Tracer("GenerationService").Start(ctx, "GeneratePoster", trace.WithAttributes(
		attribute.String("plan.id", plan.ID),
		attribute.String("trip.destination", plan.Destination),
	))
	defer span.End()

	response, err := s.aiClient.GenerateImage(ctx, buildPosterPrompt(plan))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Poster generation failed")
		return "", fmt.Errorf("%w: %w", ErrPoster, err)
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				span.SetStatus(codes.Ok, "Poster generated")
				return fmt.Sprintf("data:%s;base64,%s",
					part.InlineData.MIMEType,
					base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
			}
		}
	}

	err = fmt.Errorf("%w: no image data in response", ErrPoster)
	span.RecordError(err)
	span.SetStatus(codes.Error, "Empty poster response")
	return "", err
}

// generateText runs one prompt and extracts the first text part.
func (s *ServiceImpl) generateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	response, err := s.aiClient.GenerateResponse(ctx, prompt, config)
	if err != nil {
		return "", err
	}
	var txt string
	for _, candidate := range response.Candidates {
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			txt = candidate.Content.Parts[0].Text
			break
		}
	}
	if txt == "" {
		return "", fmt.Errorf("no valid content from AI")
	}
	return txt, nil
}

// normalizePlan enforces the document invariants the rest of the system
// relies on: contiguous 1-based day numbers, requested day count, a stay
// never duplicated into any day list, and a populated id/created-at.
func normalizePlan(plan *types.TripPlan, req types.TripRequest) error {
	if plan == nil || len(plan.Itinerary) == 0 {
		return fmt.Errorf("%w: empty itinerary", ErrGeneration)
	}
	if req.Days > 0 && len(plan.Itinerary) != req.Days {
		return fmt.Errorf("%w: expected %d days, got %d", ErrGeneration, req.Days, len(plan.Itinerary))
	}

	if req.PreselectedStay != nil {
		stay := *req.PreselectedStay
		plan.StayLocation = &stay
	}
	if plan.StayLocation != nil {
		plan.StayLocation.Kind = types.ActivityKindStay
	}

	for i := range plan.Itinerary {
		plan.Itinerary[i].DayNumber = i + 1
		if plan.StayLocation != nil {
			plan.Itinerary[i].Activities = dropStayDuplicates(plan.Itinerary[i].Activities, plan.StayLocation.Name)
		}
		for j := range plan.Itinerary[i].Activities {
			if !plan.Itinerary[i].Activities[j].Kind.Valid() {
				plan.Itinerary[i].Activities[j].Kind = types.ActivityKindActivity
			}
		}
	}

	if plan.Destination == "" {
		plan.Destination = req.Destination
	}
	if plan.Currency == "" {
		plan.Currency = req.Currency
	}
	if plan.CenterCoordinates == (types.Coordinate{}) {
		plan.CenterCoordinates = averageLocation(plan)
	}
	plan.ID = uuid.NewString()
	now := time.Now().UTC()
	plan.CreatedAt = &now
	return nil
}

func dropStayDuplicates(activities []types.Activity, stayName string) []types.Activity {
	out := activities[:0]
	for _, a := range activities {
		if strings.EqualFold(a.Name, stayName) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func averageLocation(plan *types.TripPlan) types.Coordinate {
	var sum types.Coordinate
	var n int
	for _, day := range plan.Itinerary {
		for _, a := range day.Activities {
			sum.Lat += a.Location.Lat
			sum.Lng += a.Location.Lng
			n++
		}
	}
	if n == 0 {
		return types.Coordinate{}
	}
	return types.Coordinate{Lat: sum.Lat / float64(n), Lng: sum.Lng / float64(n)}
}
