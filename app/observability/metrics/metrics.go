package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	PlanGenerationsTotal          metric.Int64Counter
	PlanGenerationDurationSeconds metric.Float64Histogram
	LogisticsRefreshesTotal       metric.Int64Counter
	LogisticsRefreshesDiscarded   metric.Int64Counter
	ArchiveQueryDurationSeconds   metric.Float64Histogram
	ArchiveQueryErrorsTotal       metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripWeaver")
		var err error
		m := &AppMetrics{}

		m.PlanGenerationsTotal, err = meter.Int64Counter(
			"plan_generations_total",
			metric.WithDescription("Total number of trip plan generations completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_generations_total: %v", err)
		}

		m.PlanGenerationDurationSeconds, err = meter.Float64Histogram(
			"plan_generation_duration_seconds",
			metric.WithDescription("Duration of trip plan generations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create plan_generation_duration_seconds: %v", err)
		}

		m.LogisticsRefreshesTotal, err = meter.Int64Counter(
			"logistics_refreshes_total",
			metric.WithDescription("Total number of background logistics refreshes completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create logistics_refreshes_total: %v", err)
		}

		m.LogisticsRefreshesDiscarded, err = meter.Int64Counter(
			"logistics_refreshes_discarded_total",
			metric.WithDescription("Logistics refresh responses discarded as stale"),
			metric.WithUnit("{response}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create logistics_refreshes_discarded_total: %v", err)
		}

		m.ArchiveQueryDurationSeconds, err = meter.Float64Histogram(
			"archive_query_duration_seconds",
			metric.WithDescription("Duration of saved-plan archive queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_query_duration_seconds: %v", err)
		}

		m.ArchiveQueryErrorsTotal, err = meter.Int64Counter(
			"archive_query_errors_total",
			metric.WithDescription("Total number of saved-plan archive query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create archive_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
