package planner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/api"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/generation"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

type PlannerHandler struct {
	plannerService Service
	logger         *slog.Logger
}

func NewPlannerHandler(plannerService Service, logger *slog.Logger) *PlannerHandler {
	return &PlannerHandler{
		plannerService: plannerService,
		logger:         logger,
	}
}

// GeneratePlan creates a fresh trip plan and makes it the session's live plan.
func (h *PlannerHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GeneratePlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/generate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GeneratePlan"))

	var req types.TripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.plannerService.GeneratePlan(ctx, api.SessionID(r), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserInput):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Provide a destination or draw at least one region")
		case errors.Is(err, generation.ErrGeneration):
			l.ErrorContext(ctx, "Plan generation failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadGateway, "Trip plan generation failed, please try again")
		default:
			l.ErrorContext(ctx, "Failed to generate plan", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate plan")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// CurrentPlan returns the live plan snapshot with selection and sync state.
func (h *PlannerHandler) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "CurrentPlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CurrentPlan"))
	view, err := h.plannerService.CurrentPlan(ctx, api.SessionID(r))
	if err != nil {
		if errors.Is(err, ErrNoLivePlan) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No trip plan loaded")
			return
		}
		l.ErrorContext(ctx, "Failed to read current plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to read current plan")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// SelectDay switches which itinerary day the client is focused on.
func (h *PlannerHandler) SelectDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "SelectDay", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/day"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SelectDay"))

	var req struct {
		DayIndex int `json:"dayIndex"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.plannerService.SelectDay(ctx, api.SessionID(r), req.DayIndex)
	if err != nil {
		h.writePlanError(ctx, l, w, r, err, "Failed to select day")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// ReorderActivities moves one activity within a day. The response carries the
// new order immediately; travel times and distances catch up asynchronously.
func (h *PlannerHandler) ReorderActivities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "ReorderActivities", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/reorder"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ReorderActivities"))

	var req struct {
		DayIndex  int `json:"dayIndex"`
		FromIndex int `json:"fromIndex"`
		ToIndex   int `json:"toIndex"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.plannerService.ReorderActivities(ctx, api.SessionID(r), req.DayIndex, req.FromIndex, req.ToIndex)
	if err != nil {
		h.writePlanError(ctx, l, w, r, err, "Failed to reorder activities")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// EditActivity patches fields on one activity or on the stay location.
func (h *PlannerHandler) EditActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "EditActivity", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/edit"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "EditActivity"))

	var req struct {
		Target types.EditTarget    `json:"target"`
		Patch  types.ActivityPatch `json:"patch"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.plannerService.EditActivity(ctx, api.SessionID(r), req.Target, req.Patch)
	if err != nil {
		if errors.Is(err, ErrNoStayLocation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Plan has no stay location to edit")
			return
		}
		h.writePlanError(ctx, l, w, r, err, "Failed to edit activity")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// ReplaceActivity swaps one activity for a freshly generated alternative.
func (h *PlannerHandler) ReplaceActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "ReplaceActivity", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/replace"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ReplaceActivity"))

	var req struct {
		DayIndex      int `json:"dayIndex"`
		ActivityIndex int `json:"activityIndex"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.plannerService.ReplaceActivity(ctx, api.SessionID(r), req.DayIndex, req.ActivityIndex)
	if err != nil {
		if errors.Is(err, generation.ErrReplacement) {
			l.ErrorContext(ctx, "Replacement generation failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadGateway, "Could not find a suitable replacement, please try again")
			return
		}
		h.writePlanError(ctx, l, w, r, err, "Failed to replace activity")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// GeneratePoster renders a souvenir poster image for the live plan.
func (h *PlannerHandler) GeneratePoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "GeneratePoster", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/poster"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GeneratePoster"))
	url, err := h.plannerService.GeneratePoster(ctx, api.SessionID(r))
	if err != nil {
		if errors.Is(err, ErrNoLivePlan) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No trip plan loaded")
			return
		}
		l.ErrorContext(ctx, "Poster generation failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadGateway, "Poster generation failed, please try again")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"postcardUrl": url})
}

// SavePlan snapshots the live plan into the saved-plan archive.
func (h *PlannerHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "SavePlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/save"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SavePlan"))
	saved, err := h.plannerService.SavePlan(ctx, api.SessionID(r))
	if err != nil {
		if errors.Is(err, ErrNoLivePlan) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No trip plan loaded")
			return
		}
		l.ErrorContext(ctx, "Failed to save plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to save plan")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, saved)
}

// ListSavedPlans returns the archive for the session, most recent first.
func (h *PlannerHandler) ListSavedPlans(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "ListSavedPlans", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/saved"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ListSavedPlans"))
	saved, err := h.plannerService.ListSavedPlans(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to list saved plans", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list saved plans")
		return
	}
	if saved == nil {
		saved = []types.SavedTripPlan{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, saved)
}

// LoadSavedPlan replaces the session's live plan with an archived snapshot.
func (h *PlannerHandler) LoadSavedPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "LoadSavedPlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/saved/{planID}/load"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "LoadSavedPlan"))
	planID := chi.URLParam(r, "planID")

	view, err := h.plannerService.LoadSavedPlan(ctx, api.SessionID(r), planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Saved plan not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load saved plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load saved plan")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

// DeleteSavedPlan removes one archived plan.
func (h *PlannerHandler) DeleteSavedPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "DeleteSavedPlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/saved/{planID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "DeleteSavedPlan"))
	planID := chi.URLParam(r, "planID")

	if err := h.plannerService.DeleteSavedPlan(ctx, api.SessionID(r), planID); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Saved plan not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete saved plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete saved plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writePlanError maps the shared plan-state sentinels to HTTP statuses.
func (h *PlannerHandler) writePlanError(ctx context.Context, l *slog.Logger, w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoLivePlan):
		api.ErrorResponse(w, r, http.StatusNotFound, "No trip plan loaded")
	case errors.Is(err, ErrInvalidDay):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Day index out of range")
	case errors.Is(err, ErrInvalidActivity):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Activity index out of range")
	default:
		l.ErrorContext(ctx, fallback, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}
