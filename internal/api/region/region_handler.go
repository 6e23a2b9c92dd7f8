package region

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/api"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

type RegionHandler struct {
	regionService Service
	logger        *slog.Logger
}

func NewRegionHandler(regionService Service, logger *slog.Logger) *RegionHandler {
	return &RegionHandler{
		regionService: regionService,
		logger:        logger,
	}
}

// ToggleDrawingMode flips free-hand drawing on or off for the session.
func (h *RegionHandler) ToggleDrawingMode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "ToggleDrawingMode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/drawing-mode"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ToggleDrawingMode"))
	state, err := h.regionService.ToggleDrawingMode(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to toggle drawing mode", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to toggle drawing mode")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// PointerEvent feeds one gesture event into the drawing state machine.
func (h *RegionHandler) PointerEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "PointerEvent", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/pointer"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "PointerEvent"))

	var req struct {
		Phase types.PointerPhase `json:"phase"`
		Lat   float64            `json:"lat"`
		Lng   float64            `json:"lng"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.regionService.PointerEvent(ctx, api.SessionID(r), req.Phase, types.Coordinate{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		l.ErrorContext(ctx, "Failed to process pointer event", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// SelectVisibleViewport appends the map's current visible bounds as a selection.
func (h *RegionHandler) SelectVisibleViewport(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "SelectVisibleViewport", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/viewport"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SelectVisibleViewport"))

	var bounds types.BoundingBox
	if err := api.DecodeJSONBody(w, r, &bounds); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.regionService.SelectVisibleViewport(ctx, api.SessionID(r), bounds)
	if err != nil {
		l.ErrorContext(ctx, "Failed to select viewport", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// UndoLastSelection removes the most recently appended selection.
func (h *RegionHandler) UndoLastSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "UndoLastSelection", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/undo"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UndoLastSelection"))
	state, err := h.regionService.UndoLastSelection(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to undo selection", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to undo selection")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// StageDestination stores the free-text destination the user typed.
func (h *RegionHandler) StageDestination(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "StageDestination", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/destination"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "StageDestination"))

	var req struct {
		Destination string `json:"destination"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.regionService.StageDestination(ctx, api.SessionID(r), req.Destination)
	if err != nil {
		l.ErrorContext(ctx, "Failed to stage destination", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to stage destination")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// GetState returns the session's current selection state.
func (h *RegionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "GetState", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetState"))
	state, err := h.regionService.State(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to read region state", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to read region state")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// SearchPlace resolves free text to locations; failures show as no results.
func (h *RegionHandler) SearchPlace(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RegionHandler").Start(r.Context(), "SearchPlace", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/regions/search"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SearchPlace"))
	query := r.URL.Query().Get("q")
	if query == "" {
		l.ErrorContext(ctx, "Search query is required")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	results := h.regionService.SearchPlace(ctx, query)
	api.WriteJSONResponse(w, r, http.StatusOK, results)
}
