package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-trip-weaver/internal/api/layout"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/maprender"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/planner"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/region"
)

// Config contains the handlers needed for the router setup.
type Config struct {
	PlannerHandler   *planner.PlannerHandler
	RegionHandler    *region.RegionHandler
	LayoutHandler    *layout.LayoutHandler
	MapRenderHandler *maprender.MapRenderHandler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/plans", func(r chi.Router) {
			r.Post("/generate", cfg.PlannerHandler.GeneratePlan)
			r.Get("/current", cfg.PlannerHandler.CurrentPlan)
			r.Post("/current/day", cfg.PlannerHandler.SelectDay)
			r.Post("/current/reorder", cfg.PlannerHandler.ReorderActivities)
			r.Post("/current/edit", cfg.PlannerHandler.EditActivity)
			r.Post("/current/replace", cfg.PlannerHandler.ReplaceActivity)
			r.Post("/current/poster", cfg.PlannerHandler.GeneratePoster)
			r.Get("/current/map", cfg.MapRenderHandler.GetRenderModel)
			r.Post("/save", cfg.PlannerHandler.SavePlan)
			r.Get("/saved", cfg.PlannerHandler.ListSavedPlans)
			r.Post("/saved/{planID}/load", cfg.PlannerHandler.LoadSavedPlan)
			r.Delete("/saved/{planID}", cfg.PlannerHandler.DeleteSavedPlan)
		})

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", cfg.RegionHandler.GetState)
			r.Post("/drawing-mode", cfg.RegionHandler.ToggleDrawingMode)
			r.Post("/pointer", cfg.RegionHandler.PointerEvent)
			r.Post("/viewport", cfg.RegionHandler.SelectVisibleViewport)
			r.Post("/undo", cfg.RegionHandler.UndoLastSelection)
			r.Post("/destination", cfg.RegionHandler.StageDestination)
			r.Get("/search", cfg.RegionHandler.SearchPlace)
		})

		r.Route("/layout", func(r chi.Router) {
			r.Get("/", cfg.LayoutHandler.GetState)
			r.Post("/begin", cfg.LayoutHandler.BeginResize)
			r.Post("/update", cfg.LayoutHandler.UpdateResize)
			r.Post("/end", cfg.LayoutHandler.EndResize)
		})
	})

	return r
}
