package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	maxResults     = 5
	userAgent      = "go-trip-weaver/1.0"
)

var _ Service = (*ServiceImpl)(nil)

// Service resolves free text to geographic locations. Best-effort, no auth.
type Service interface {
	Search(ctx context.Context, query string) ([]types.PlaceResult, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

func NewServiceImpl(baseURL string, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// nominatimResult mirrors the wire shape; numbers arrive as strings and the
// bounding box as [south, north, west, east].
type nominatimResult struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

func (s *ServiceImpl) Search(ctx context.Context, query string) ([]types.PlaceResult, error) {
	ctx, span := otel.Tracer("GeocodeService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("geocode.query", query),
	))
	defer span.End()

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d",
		s.baseURL, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Geocode request failed")
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocode request returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unexpected geocode status")
		return nil, err
	}

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to decode geocode response")
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	results := make([]types.PlaceResult, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			s.logger.WarnContext(ctx, "Skipping geocode result with bad coordinates",
				slog.String("display_name", r.DisplayName))
			continue
		}
		result := types.PlaceResult{
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
		}
		if box := parseBoundingBox(r.BoundingBox); box != nil {
			result.BoundingBox = box
		}
		results = append(results, result)
	}

	span.SetAttributes(attribute.Int("geocode.results", len(results)))
	span.SetStatus(codes.Ok, "Geocode search completed")
	return results, nil
}

func parseBoundingBox(parts []string) *types.BoundingBox {
	if len(parts) != 4 {
		return nil
	}
	south, err1 := strconv.ParseFloat(parts[0], 64)
	north, err2 := strconv.ParseFloat(parts[1], 64)
	west, err3 := strconv.ParseFloat(parts[2], 64)
	east, err4 := strconv.ParseFloat(parts[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil
	}
	box := types.BoundingBox{North: north, South: south, East: east, West: west}
	if !box.Valid() {
		return nil
	}
	return &box
}
