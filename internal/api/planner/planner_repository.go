package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-trip-weaver/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-weaver/internal/types"
)

var _ Repository = (*PostgresPlannerRepository)(nil)

// Repository persists the saved-plan archive: an ordered list of plan
// snapshots per session, de-duplicated by plan id, most-recent-first.
type Repository interface {
	UpsertPlan(ctx context.Context, sessionID string, saved types.SavedTripPlan) error
	ListPlans(ctx context.Context, sessionID string) ([]types.SavedTripPlan, error)
	GetPlan(ctx context.Context, sessionID, planID string) (*types.SavedTripPlan, error)
	DeletePlan(ctx context.Context, sessionID, planID string) error
}

// PgxPool is the slice of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresPlannerRepository struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresPlannerRepository(pgpool PgxPool, logger *slog.Logger) *PostgresPlannerRepository {
	return &PostgresPlannerRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresPlannerRepository) UpsertPlan(ctx context.Context, sessionID string, saved types.SavedTripPlan) error {
	planID, err := uuid.Parse(saved.Plan.ID)
	if err != nil {
		return fmt.Errorf("invalid plan id %q: %w", saved.Plan.ID, err)
	}
	payload, err := json.Marshal(saved.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	start := time.Now()
	query := `
        INSERT INTO saved_trip_plans (plan_id, session_id, plan, saved_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (plan_id)
        DO UPDATE SET session_id = EXCLUDED.session_id, plan = EXCLUDED.plan, saved_at = EXCLUDED.saved_at
    `
	_, err = r.pgpool.Exec(ctx, query, planID, sessionID, payload, saved.SavedAt)
	metrics.Get().ArchiveQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().ArchiveQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to upsert saved plan: %w", err)
	}
	return nil
}

func (r *PostgresPlannerRepository) ListPlans(ctx context.Context, sessionID string) ([]types.SavedTripPlan, error) {
	start := time.Now()
	query := `
        SELECT plan, saved_at
        FROM saved_trip_plans
        WHERE session_id = $1
        ORDER BY saved_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, sessionID)
	metrics.Get().ArchiveQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().ArchiveQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to list saved plans: %w", err)
	}
	defer rows.Close()

	var saved []types.SavedTripPlan
	for rows.Next() {
		var payload []byte
		var savedAt time.Time
		if err := rows.Scan(&payload, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved plan: %w", err)
		}
		var plan types.TripPlan
		if err := json.Unmarshal(payload, &plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal saved plan: %w", err)
		}
		saved = append(saved, types.SavedTripPlan{Plan: plan, SavedAt: savedAt})
	}
	if err := rows.Err(); err != nil {
		metrics.Get().ArchiveQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed reading saved plans: %w", err)
	}
	return saved, nil
}

func (r *PostgresPlannerRepository) GetPlan(ctx context.Context, sessionID, planID string) (*types.SavedTripPlan, error) {
	id, err := uuid.Parse(planID)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id %q: %w", planID, err)
	}

	query := `
        SELECT plan, saved_at
        FROM saved_trip_plans
        WHERE session_id = $1 AND plan_id = $2
    `
	var payload []byte
	var savedAt time.Time
	if err := r.pgpool.QueryRow(ctx, query, sessionID, id).Scan(&payload, &savedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		metrics.Get().ArchiveQueryErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("failed to get saved plan: %w", err)
	}

	var plan types.TripPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saved plan: %w", err)
	}
	return &types.SavedTripPlan{Plan: plan, SavedAt: savedAt}, nil
}

func (r *PostgresPlannerRepository) DeletePlan(ctx context.Context, sessionID, planID string) error {
	id, err := uuid.Parse(planID)
	if err != nil {
		return fmt.Errorf("invalid plan id %q: %w", planID, err)
	}

	query := `DELETE FROM saved_trip_plans WHERE session_id = $1 AND plan_id = $2`
	tag, err := r.pgpool.Exec(ctx, query, sessionID, id)
	if err != nil {
		metrics.Get().ArchiveQueryErrorsTotal.Add(ctx, 1)
		return fmt.Errorf("failed to delete saved plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}
