package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/generation"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

var (
	// ErrUserInput blocks a generation request that names no place at all;
	// no network call is issued for these.
	ErrUserInput = errors.New("destination or region selection required")

	ErrNoLivePlan      = errors.New("no live trip plan")
	ErrInvalidDay      = errors.New("day index out of range")
	ErrInvalidActivity = errors.New("activity index out of range")
	ErrNoStayLocation  = errors.New("plan has no stay location")
	ErrPlanNotFound    = errors.New("saved plan not found")
)

var (
	refreshSuccess = metric.WithAttributes(attribute.String("outcome", "success"))
	refreshFailure = metric.WithAttributes(attribute.String("outcome", "failure"))
)

var _ Service = (*ServiceImpl)(nil)

// PlanView is the read-side snapshot handed to consumers: a deep copy of the
// live plan plus the session's selection and sync state.
type PlanView struct {
	Plan        *types.TripPlan `json:"plan"`
	SelectedDay int             `json:"selectedDay"`
	SyncingDays []int           `json:"syncingDays,omitempty"`
}

// Service is the reconciliation engine. It exclusively owns the live
// TripPlan per session; every structural mutation goes through it so the
// document invariants stay enforceable in one place.
type Service interface {
	GeneratePlan(ctx context.Context, sessionID string, req types.TripRequest) (*types.TripPlan, error)
	CurrentPlan(ctx context.Context, sessionID string) (*PlanView, error)
	SelectDay(ctx context.Context, sessionID string, dayIndex int) (*PlanView, error)
	ReorderActivities(ctx context.Context, sessionID string, dayIndex, fromIndex, toIndex int) (*PlanView, error)
	EditActivity(ctx context.Context, sessionID string, target types.EditTarget, patch types.ActivityPatch) (*PlanView, error)
	ReplaceActivity(ctx context.Context, sessionID string, dayIndex, activityIndex int) (*PlanView, error)
	GeneratePoster(ctx context.Context, sessionID string) (string, error)
	SavePlan(ctx context.Context, sessionID string) (*types.SavedTripPlan, error)
	ListSavedPlans(ctx context.Context, sessionID string) ([]types.SavedTripPlan, error)
	LoadSavedPlan(ctx context.Context, sessionID, planID string) (*PlanView, error)
	DeleteSavedPlan(ctx context.Context, sessionID, planID string) error
}

// session is the mutable planning state for one client. seq carries a
// per-day mutation sequence number; a logistics refresh response is applied
// only if the day's sequence is unchanged since the request was issued.
type session struct {
	mu          sync.Mutex
	plan        *types.TripPlan
	selectedDay int
	syncing     map[int]int // day index -> in-flight refresh count
	seq         map[int]uint64
}

type ServiceImpl struct {
	logger            *slog.Logger
	sessions          *cache.Cache
	generationService generation.Service
	repo              Repository
}

func NewServiceImpl(sessions *cache.Cache, generationService generation.Service, repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:            logger,
		sessions:          sessions,
		generationService: generationService,
		repo:              repo,
	}
}

func (s *ServiceImpl) getSession(sessionID string) *session {
	key := "planner:" + sessionID
	if cached, found := s.sessions.Get(key); found {
		if sess, ok := cached.(*session); ok {
			return sess
		}
	}
	sess := &session{
		syncing: make(map[int]int),
		seq:     make(map[int]uint64),
	}
	s.sessions.Set(key, sess, cache.NoExpiration)
	return sess
}

func (s *ServiceImpl) GeneratePlan(ctx context.Context, sessionID string, req types.TripRequest) (*types.TripPlan, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "GeneratePlan", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("trip.days", req.Days),
	))
	defer span.End()

	if !req.HasLocation() {
		span.SetStatus(codes.Error, "No destination or regions")
		return nil, ErrUserInput
	}

	plan, err := s.generationService.GeneratePlan(ctx, req)
	if err != nil {
		// The session keeps its pre-request state; no partial plan.
		s.logger.ErrorContext(ctx, "Plan generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Plan generation failed")
		return nil, err
	}

	sess := s.getSession(sessionID)
	sess.mu.Lock()
	sess.plan = plan
	sess.selectedDay = 0
	sess.syncing = make(map[int]int)
	sess.seq = make(map[int]uint64)
	snapshot := sess.plan.Clone()
	sess.mu.Unlock()

	span.SetAttributes(attribute.String("plan.id", plan.ID))
	span.SetStatus(codes.Ok, "Plan generated and loaded")
	return snapshot, nil
}

func (s *ServiceImpl) CurrentPlan(ctx context.Context, sessionID string) (*PlanView, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.plan == nil {
		return nil, ErrNoLivePlan
	}
	return sess.viewLocked(), nil
}

func (s *ServiceImpl) SelectDay(ctx context.Context, sessionID string, dayIndex int) (*PlanView, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.plan == nil {
		return nil, ErrNoLivePlan
	}
	if dayIndex < 0 || dayIndex >= len(sess.plan.Itinerary) {
		return nil, ErrInvalidDay
	}
	sess.selectedDay = dayIndex
	return sess.viewLocked(), nil
}

// ReorderActivities applies the permutation synchronously so the caller sees
// the new order with zero latency, then refreshes the derived logistics
// fields in the background. A refresh failure never rolls the reorder back.
func (s *ServiceImpl) ReorderActivities(ctx context.Context, sessionID string, dayIndex, fromIndex, toIndex int) (*PlanView, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "ReorderActivities", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("day.index", dayIndex),
		attribute.Int("from.index", fromIndex),
		attribute.Int("to.index", toIndex),
	))
	defer span.End()

	sess := s.getSession(sessionID)
	sess.mu.Lock()

	if sess.plan == nil {
		sess.mu.Unlock()
		return nil, ErrNoLivePlan
	}
	if dayIndex < 0 || dayIndex >= len(sess.plan.Itinerary) {
		sess.mu.Unlock()
		return nil, ErrInvalidDay
	}
	day := &sess.plan.Itinerary[dayIndex]
	n := len(day.Activities)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		sess.mu.Unlock()
		return nil, ErrInvalidActivity
	}

	// Remove at source, insert at target.
	moved := day.Activities[fromIndex]
	day.Activities = append(day.Activities[:fromIndex], day.Activities[fromIndex+1:]...)
	day.Activities = append(day.Activities[:toIndex], append([]types.Activity{moved}, day.Activities[toIndex:]...)...)

	sess.seq[dayIndex]++
	issued := sess.seq[dayIndex]
	sess.syncing[dayIndex]++

	reordered := make([]types.Activity, len(day.Activities))
	copy(reordered, day.Activities)
	destination := sess.plan.Destination
	var stay *types.Activity
	if sess.plan.StayLocation != nil {
		stayCopy := *sess.plan.StayLocation
		stay = &stayCopy
	}
	startTime := ""
	if len(reordered) > 0 {
		startTime = reordered[0].Time
	}
	view := sess.viewLocked()
	sess.mu.Unlock()

	// Fire and forget; the response is discarded if the day mutated again
	// while the refresh was in flight. Detached from the request context
	// because these calls are not cancellable once issued.
	go s.refreshLogistics(context.WithoutCancel(ctx), sess, dayIndex, issued, reordered, destination, stay, startTime)

	span.SetStatus(codes.Ok, "Reorder applied, logistics refresh issued")
	return view, nil
}

func (s *ServiceImpl) refreshLogistics(ctx context.Context, sess *session, dayIndex int, issued uint64, activities []types.Activity, destination string, stay *types.Activity, startTime string) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "refreshLogistics", trace.WithAttributes(
		attribute.Int("day.index", dayIndex),
		attribute.Int("activities.count", len(activities)),
	))
	defer span.End()

	refreshed, err := s.generationService.RefreshLogistics(ctx, activities, destination, stay, startTime)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.syncing[dayIndex] > 0 {
		sess.syncing[dayIndex]--
		if sess.syncing[dayIndex] == 0 {
			delete(sess.syncing, dayIndex)
		}
	}

	if err != nil {
		// Best-effort enhancement: the user's ordering stands, the stale
		// travel legs remain, and the failure goes to observability only.
		s.logger.WarnContext(ctx, "Logistics refresh failed, keeping stale travel legs",
			slog.Int("dayIndex", dayIndex), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Logistics refresh failed")
		metrics.Get().LogisticsRefreshesTotal.Add(ctx, 1, refreshFailure)
		return
	}

	if sess.plan == nil || dayIndex >= len(sess.plan.Itinerary) || sess.seq[dayIndex] != issued {
		s.logger.DebugContext(ctx, "Discarding stale logistics refresh",
			slog.Int("dayIndex", dayIndex), slog.Uint64("issued", issued))
		span.AddEvent("Stale response discarded")
		span.SetStatus(codes.Ok, "Stale refresh discarded")
		metrics.Get().LogisticsRefreshesDiscarded.Add(ctx, 1)
		return
	}

	day := &sess.plan.Itinerary[dayIndex]
	if len(refreshed) != len(day.Activities) {
		span.SetStatus(codes.Error, "Refresh cardinality mismatch")
		metrics.Get().LogisticsRefreshesTotal.Add(ctx, 1, refreshFailure)
		return
	}
	// Only the derived logistics fields are overwritten; activity identity
	// is preserved.
	for i := range day.Activities {
		day.Activities[i].Time = refreshed[i].Time
		day.Activities[i].TravelDistance = refreshed[i].TravelDistance
		day.Activities[i].TravelTime = refreshed[i].TravelTime
	}

	metrics.Get().LogisticsRefreshesTotal.Add(ctx, 1, refreshSuccess)
	span.SetStatus(codes.Ok, "Logistics refreshed")
}

func (s *ServiceImpl) EditActivity(ctx context.Context, sessionID string, target types.EditTarget, patch types.ActivityPatch) (*PlanView, error) {
	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.plan == nil {
		return nil, ErrNoLivePlan
	}

	switch target.Kind {
	case types.EditTargetStay:
		if sess.plan.StayLocation == nil {
			return nil, ErrNoStayLocation
		}
		patch.Apply(sess.plan.StayLocation)
		// The stay stays a stay, whatever the patch says.
		sess.plan.StayLocation.Kind = types.ActivityKindStay

	case types.EditTargetActivity:
		if target.DayIndex < 0 || target.DayIndex >= len(sess.plan.Itinerary) {
			return nil, ErrInvalidDay
		}
		day := &sess.plan.Itinerary[target.DayIndex]
		if target.ActivityIndex < 0 || target.ActivityIndex >= len(day.Activities) {
			return nil, ErrInvalidActivity
		}
		patch.Apply(&day.Activities[target.ActivityIndex])
		sess.seq[target.DayIndex]++

	default:
		return nil, fmt.Errorf("unknown edit target kind %q", target.Kind)
	}

	return sess.viewLocked(), nil
}

// ReplaceActivity asks the collaborator for one alternative, excluding every
// activity name already present anywhere in the itinerary. Failures
// propagate: this is a direct user-initiated, modal-scoped action.
func (s *ServiceImpl) ReplaceActivity(ctx context.Context, sessionID string, dayIndex, activityIndex int) (*PlanView, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "ReplaceActivity", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("day.index", dayIndex),
		attribute.Int("activity.index", activityIndex),
	))
	defer span.End()

	sess := s.getSession(sessionID)
	sess.mu.Lock()
	if sess.plan == nil {
		sess.mu.Unlock()
		return nil, ErrNoLivePlan
	}
	if dayIndex < 0 || dayIndex >= len(sess.plan.Itinerary) {
		sess.mu.Unlock()
		return nil, ErrInvalidDay
	}
	day := sess.plan.Itinerary[dayIndex]
	if activityIndex < 0 || activityIndex >= len(day.Activities) {
		sess.mu.Unlock()
		return nil, ErrInvalidActivity
	}

	current := day.Activities[activityIndex]
	var excluded []string
	for _, d := range sess.plan.Itinerary {
		for _, a := range d.Activities {
			excluded = append(excluded, a.Name)
		}
	}
	if sess.plan.StayLocation != nil {
		excluded = append(excluded, sess.plan.StayLocation.Name)
	}
	destination := sess.plan.Destination
	currency := sess.plan.Currency
	theme := day.Theme
	sess.mu.Unlock()

	replacement, err := s.generationService.GenerateReplacement(ctx, current, destination, theme, currency, excluded)
	if err != nil {
		s.logger.ErrorContext(ctx, "Activity replacement failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Replacement failed")
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.plan == nil || dayIndex >= len(sess.plan.Itinerary) ||
		activityIndex >= len(sess.plan.Itinerary[dayIndex].Activities) {
		return nil, ErrInvalidActivity
	}
	sess.plan.Itinerary[dayIndex].Activities[activityIndex] = *replacement
	sess.seq[dayIndex]++

	span.SetStatus(codes.Ok, "Activity replaced")
	return sess.viewLocked(), nil
}

func (s *ServiceImpl) GeneratePoster(ctx context.Context, sessionID string) (string, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "GeneratePoster", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	sess := s.getSession(sessionID)
	sess.mu.Lock()
	if sess.plan == nil {
		sess.mu.Unlock()
		return "", ErrNoLivePlan
	}
	snapshot := sess.plan.Clone()
	sess.mu.Unlock()

	url, err := s.generationService.GeneratePoster(ctx, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Poster generation failed")
		return "", err
	}

	sess.mu.Lock()
	if sess.plan != nil && sess.plan.ID == snapshot.ID {
		sess.plan.PostcardURL = url
	}
	sess.mu.Unlock()

	span.SetStatus(codes.Ok, "Poster generated")
	return url, nil
}

func (s *ServiceImpl) SavePlan(ctx context.Context, sessionID string) (*types.SavedTripPlan, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "SavePlan", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	sess := s.getSession(sessionID)
	sess.mu.Lock()
	if sess.plan == nil {
		sess.mu.Unlock()
		return nil, ErrNoLivePlan
	}
	snapshot := sess.plan.Clone()
	sess.mu.Unlock()

	saved := types.SavedTripPlan{Plan: *snapshot, SavedAt: time.Now().UTC()}
	if err := s.repo.UpsertPlan(ctx, sessionID, saved); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save plan", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	span.SetAttributes(attribute.String("plan.id", saved.Plan.ID))
	span.SetStatus(codes.Ok, "Plan saved")
	return &saved, nil
}

func (s *ServiceImpl) ListSavedPlans(ctx context.Context, sessionID string) ([]types.SavedTripPlan, error) {
	saved, err := s.repo.ListPlans(ctx, sessionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list saved plans", slog.Any("error", err))
		return nil, err
	}
	return saved, nil
}

func (s *ServiceImpl) LoadSavedPlan(ctx context.Context, sessionID, planID string) (*PlanView, error) {
	ctx, span := otel.Tracer("PlannerService").Start(ctx, "LoadSavedPlan", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("plan.id", planID),
	))
	defer span.End()

	saved, err := s.repo.GetPlan(ctx, sessionID, planID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load saved plan", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}
	if saved == nil {
		return nil, ErrPlanNotFound
	}

	sess := s.getSession(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	plan := saved.Plan
	sess.plan = plan.Clone()
	sess.selectedDay = 0
	sess.syncing = make(map[int]int)
	sess.seq = make(map[int]uint64)

	span.SetStatus(codes.Ok, "Saved plan loaded")
	return sess.viewLocked(), nil
}

func (s *ServiceImpl) DeleteSavedPlan(ctx context.Context, sessionID, planID string) error {
	if err := s.repo.DeletePlan(ctx, sessionID, planID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete saved plan", slog.Any("error", err))
		return err
	}
	return nil
}

// viewLocked builds a read snapshot; callers must hold sess.mu.
func (sess *session) viewLocked() *PlanView {
	view := &PlanView{
		Plan:        sess.plan.Clone(),
		SelectedDay: sess.selectedDay,
	}
	for day, count := range sess.syncing {
		if count > 0 {
			view.SyncingDays = append(view.SyncingDays, day)
		}
	}
	return view
}
