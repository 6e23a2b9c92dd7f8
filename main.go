package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/patrickmn/go-cache"

	database "github.com/FACorreiaa/go-trip-weaver/app/db"
	appLogger "github.com/FACorreiaa/go-trip-weaver/app/logger"
	"github.com/FACorreiaa/go-trip-weaver/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-weaver/app/tracer"
	"github.com/FACorreiaa/go-trip-weaver/config"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/generation"
	generativeAI "github.com/FACorreiaa/go-trip-weaver/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/geocode"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/layout"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/maprender"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/planner"
	"github.com/FACorreiaa/go-trip-weaver/internal/api/region"
	api "github.com/FACorreiaa/go-trip-weaver/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations before initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- AI Client ---
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.AI.Model)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	// Session state is in-memory with a sliding expiry; the saved-plan
	// archive is the only durable store.
	sessions := cache.New(24*time.Hour, 1*time.Hour)

	generationService := generation.NewServiceImpl(aiClient, logger)
	geocodeService := geocode.NewServiceImpl(cfg.Geocode.BaseURL, logger)

	plannerRepo := planner.NewPostgresPlannerRepository(pool, logger)
	plannerService := planner.NewServiceImpl(sessions, generationService, plannerRepo, logger)
	plannerHandler := planner.NewPlannerHandler(plannerService, logger)

	regionService := region.NewServiceImpl(sessions, geocodeService, logger)
	regionHandler := region.NewRegionHandler(regionService, logger)

	layoutService := layout.NewServiceImpl(sessions, logger)
	layoutHandler := layout.NewLayoutHandler(layoutService, logger)

	mapRenderHandler := maprender.NewMapRenderHandler(plannerService, logger)

	// --- Router Setup ---
	routerConfig := &api.Config{
		PlannerHandler:   plannerHandler,
		RegionHandler:    regionHandler,
		LayoutHandler:    layoutHandler,
		MapRenderHandler: mapRenderHandler,
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second, // Generation calls can be slow
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
