package region

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/api/geocode"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

// minDragMeters separates a deliberate region drag from an accidental click.
const minDragMeters = 100.0

const earthRadiusMeters = 6371000.0

var _ Service = (*ServiceImpl)(nil)

// Service owns the per-session region selection state: the ordered list of
// drawn bounding boxes, the drawing-mode flag and the drag gesture machine.
type Service interface {
	ToggleDrawingMode(ctx context.Context, sessionID string) (types.RegionState, error)
	PointerEvent(ctx context.Context, sessionID string, phase types.PointerPhase, at types.Coordinate) (types.RegionState, error)
	SelectVisibleViewport(ctx context.Context, sessionID string, bounds types.BoundingBox) (types.RegionState, error)
	UndoLastSelection(ctx context.Context, sessionID string) (types.RegionState, error)
	StageDestination(ctx context.Context, sessionID, destination string) (types.RegionState, error)
	State(ctx context.Context, sessionID string) (types.RegionState, error)
	SearchPlace(ctx context.Context, query string) []types.PlaceResult
}

type session struct {
	mu    sync.Mutex
	state types.RegionState
}

type ServiceImpl struct {
	logger     *slog.Logger
	sessions   *cache.Cache
	geocodeSvc geocode.Service
}

func NewServiceImpl(sessions *cache.Cache, geocodeSvc geocode.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		sessions:   sessions,
		geocodeSvc: geocodeSvc,
	}
}

func (s *ServiceImpl) getSession(sessionID string) *session {
	key := "region:" + sessionID
	if cached, found := s.sessions.Get(key); found {
		if sess, ok := cached.(*session); ok {
			return sess
		}
	}
	sess := &session{state: types.RegionState{Phase: types.GestureIdle}}
	s.sessions.Set(key, sess, cache.DefaultExpiration)
	return sess
}

func (s *ServiceImpl) ToggleDrawingMode(ctx context.Context, sessionID string) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.DrawingMode = !sess.state.DrawingMode
	// Leaving draw mode abandons any drag in flight.
	sess.state.Phase = types.GestureIdle
	sess.state.Anchor = nil
	sess.state.Preview = nil

	s.logger.DebugContext(ctx, "Drawing mode toggled",
		slog.String("sessionID", sessionID), slog.Bool("drawing", sess.state.DrawingMode))
	return snapshot(sess.state), nil
}

// PointerEvent advances the drag gesture machine:
// Idle → (down) Anchoring → (move) Previewing → (up) Idle.
// On release, a box is appended only when the drag spans more than
// minDragMeters; shorter drags are discarded as accidental clicks.
func (s *ServiceImpl) PointerEvent(ctx context.Context, sessionID string, phase types.PointerPhase, at types.Coordinate) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.state.DrawingMode {
		return snapshot(sess.state), nil
	}

	switch phase {
	case types.PointerDown:
		anchor := at
		sess.state.Phase = types.GestureAnchoring
		sess.state.Anchor = &anchor
		sess.state.Preview = nil

	case types.PointerMove:
		if sess.state.Anchor == nil {
			break
		}
		preview := boxBetween(*sess.state.Anchor, at)
		sess.state.Phase = types.GesturePreviewing
		sess.state.Preview = &preview

	case types.PointerUp:
		if sess.state.Anchor != nil && haversineMeters(*sess.state.Anchor, at) > minDragMeters {
			sess.state.Selections = append(sess.state.Selections, boxBetween(*sess.state.Anchor, at))
			// Region selection and a typed destination are mutually
			// exclusive for one planning request.
			sess.state.StagedDestination = ""
			s.logger.InfoContext(ctx, "Region selection appended",
				slog.String("sessionID", sessionID), slog.Int("selections", len(sess.state.Selections)))
		}
		sess.state.Phase = types.GestureIdle
		sess.state.Anchor = nil
		sess.state.Preview = nil

	default:
		return snapshot(sess.state), fmt.Errorf("unknown pointer phase %q", phase)
	}

	return snapshot(sess.state), nil
}

func (s *ServiceImpl) SelectVisibleViewport(ctx context.Context, sessionID string, bounds types.BoundingBox) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !bounds.Valid() {
		return snapshot(sess.state), fmt.Errorf("invalid viewport bounds: north must exceed south")
	}

	sess.state.Selections = append(sess.state.Selections, bounds)
	sess.state.StagedDestination = ""
	s.logger.InfoContext(ctx, "Viewport selection appended",
		slog.String("sessionID", sessionID), slog.Int("selections", len(sess.state.Selections)))
	return snapshot(sess.state), nil
}

func (s *ServiceImpl) UndoLastSelection(ctx context.Context, sessionID string) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if n := len(sess.state.Selections); n > 0 {
		sess.state.Selections = sess.state.Selections[:n-1]
	}
	return snapshot(sess.state), nil
}

func (s *ServiceImpl) StageDestination(ctx context.Context, sessionID, destination string) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state.StagedDestination = destination
	return snapshot(sess.state), nil
}

func (s *ServiceImpl) State(ctx context.Context, sessionID string) (types.RegionState, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess.state), nil
}

// SearchPlace resolves free text via the geocoding collaborator. Failures
// degrade to an empty result list; they are logged, never surfaced.
func (s *ServiceImpl) SearchPlace(ctx context.Context, query string) []types.PlaceResult {
	ctx, span := otel.Tracer("RegionService").Start(ctx, "SearchPlace", trace.WithAttributes(
		attribute.String("geocode.query", query),
	))
	defer span.End()

	results, err := s.geocodeSvc.Search(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "Place search failed, returning no results", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Ok, "Place search degraded to empty results")
		return []types.PlaceResult{}
	}
	span.SetAttributes(attribute.Int("geocode.results", len(results)))
	span.SetStatus(codes.Ok, "Place search completed")
	return results
}

func snapshot(state types.RegionState) types.RegionState {
	out := state
	out.Selections = append([]types.BoundingBox(nil), state.Selections...)
	if state.Anchor != nil {
		anchor := *state.Anchor
		out.Anchor = &anchor
	}
	if state.Preview != nil {
		preview := *state.Preview
		out.Preview = &preview
	}
	return out
}

func boxBetween(a, b types.Coordinate) types.BoundingBox {
	return types.BoundingBox{
		North: math.Max(a.Lat, b.Lat),
		South: math.Min(a.Lat, b.Lat),
		East:  math.Max(a.Lng, b.Lng),
		West:  math.Min(a.Lng, b.Lng),
	}
}

func haversineMeters(a, b types.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
