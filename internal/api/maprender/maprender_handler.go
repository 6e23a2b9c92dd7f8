package maprender

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-weaver/internal/api"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/planner"
)

type MapRenderHandler struct {
	plannerService planner.Service
	logger         *slog.Logger
}

func NewMapRenderHandler(plannerService planner.Service, logger *slog.Logger) *MapRenderHandler {
	return &MapRenderHandler{
		plannerService: plannerService,
		logger:         logger,
	}
}

// GetRenderModel projects the live plan's selected day into markers, path
// and camera framing.
func (h *MapRenderHandler) GetRenderModel(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MapRenderHandler").Start(r.Context(), "GetRenderModel", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/plans/current/map"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetRenderModel"))
	view, err := h.plannerService.CurrentPlan(ctx, api.SessionID(r))
	if err != nil {
		if errors.Is(err, planner.ErrNoLivePlan) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No trip plan loaded")
			return
		}
		l.ErrorContext(ctx, "Failed to read current plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to build map model")
		return
	}

	model := BuildModel(view.Plan, view.SelectedDay)
	api.WriteJSONResponse(w, r, http.StatusOK, model)
}
