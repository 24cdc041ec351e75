package history

import (
	"context"
	"fmt"
	"time"

	"trip-planner/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the trip history store.
type RepositoryInterface interface {
	EnsureSchema(ctx context.Context) error
	SaveTrip(ctx context.Context, rec *models.TripRecord) error
	ListRecent(ctx context.Context, limit int) ([]*models.TripRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new history repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS trip_history (
		id               UUID PRIMARY KEY,
		session_id       TEXT NOT NULL,
		current_location TEXT NOT NULL,
		pickup_location  TEXT NOT NULL,
		dropoff_location TEXT NOT NULL,
		cycle_used       TEXT NOT NULL,
		succeeded        BOOLEAN NOT NULL,
		total_distance   DOUBLE PRECISION,
		total_time       DOUBLE PRECISION,
		compliance       TEXT NOT NULL DEFAULT '',
		error_message    TEXT NOT NULL DEFAULT '',
		result           JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS trip_history_created_at_idx ON trip_history (created_at);`

// EnsureSchema creates the history table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("repository.EnsureSchema: %w", err)
	}
	return nil
}

// SaveTrip inserts one resolved submission.
func (r *Repository) SaveTrip(ctx context.Context, rec *models.TripRecord) error {
	query := `
		INSERT INTO trip_history (id, session_id, current_location, pickup_location, dropoff_location, cycle_used,
			succeeded, total_distance, total_time, compliance, error_message, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var result any
	if len(rec.Result) > 0 {
		result = string(rec.Result)
	}

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.CurrentLocation,
		rec.PickupLocation,
		rec.DropoffLocation,
		rec.CycleUsed,
		rec.Succeeded,
		rec.TotalDistance,
		rec.TotalTime,
		rec.Compliance,
		rec.ErrorMessage,
		result,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository.SaveTrip: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*models.TripRecord, error) {
	var rec models.TripRecord
	var result []byte
	err := row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.CurrentLocation,
		&rec.PickupLocation,
		&rec.DropoffLocation,
		&rec.CycleUsed,
		&rec.Succeeded,
		&rec.TotalDistance,
		&rec.TotalTime,
		&rec.Compliance,
		&rec.ErrorMessage,
		&result,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan trip record: %w", err)
	}
	rec.Result = result
	return &rec, nil
}

// ListRecent returns the newest records first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*models.TripRecord, error) {
	query := `
		SELECT id, session_id, current_location, pickup_location, dropoff_location, cycle_used,
			succeeded, total_distance, total_time, compliance, error_message, result, created_at
		FROM trip_history
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository.ListRecent: %w", err)
	}
	defer rows.Close()

	records := make([]*models.TripRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListRecent: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListRecent: %w", err)
	}
	return records, nil
}

// DeleteOlderThan removes records created before cutoff and reports how many
// were removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trip_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("repository.DeleteOlderThan: %w", err)
	}
	return tag.RowsAffected(), nil
}
