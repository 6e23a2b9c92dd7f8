package layout

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/api"
)

type LayoutHandler struct {
	layoutService Service
	logger        *slog.Logger
}

func NewLayoutHandler(layoutService Service, logger *slog.Logger) *LayoutHandler {
	return &LayoutHandler{
		layoutService: layoutService,
		logger:        logger,
	}
}

// BeginResize starts a divider drag and captures the container geometry.
func (h *LayoutHandler) BeginResize(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LayoutHandler").Start(r.Context(), "BeginResize", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/layout/begin"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "BeginResize"))

	var req struct {
		ContainerLeft  float64 `json:"containerLeft"`
		ContainerWidth float64 `json:"containerWidth"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.layoutService.BeginResize(ctx, api.SessionID(r), req.ContainerLeft, req.ContainerWidth)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin resize", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to begin resize")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// UpdateResize applies one pointer position to the in-flight drag.
func (h *LayoutHandler) UpdateResize(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LayoutHandler").Start(r.Context(), "UpdateResize", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/layout/update"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateResize"))

	var req struct {
		PointerX float64 `json:"pointerX"`
	}
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.layoutService.UpdateResize(ctx, api.SessionID(r), req.PointerX)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update resize", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update resize")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// EndResize finishes the drag and keeps the final pane width.
func (h *LayoutHandler) EndResize(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LayoutHandler").Start(r.Context(), "EndResize", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/layout/end"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "EndResize"))
	state, err := h.layoutService.EndResize(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to end resize", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to end resize")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}

// GetState returns the session's current pane layout.
func (h *LayoutHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LayoutHandler").Start(r.Context(), "GetState", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/layout"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetState"))
	state, err := h.layoutService.State(ctx, api.SessionID(r))
	if err != nil {
		l.ErrorContext(ctx, "Failed to read layout state", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to read layout state")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, state)
}
