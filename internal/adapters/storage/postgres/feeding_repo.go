package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"family-health-engine/internal/domain/feeding"
)

type FeedingRepo struct {
	db *sql.DB
}

func NewFeedingRepo(db *sql.DB) *FeedingRepo {
	return &FeedingRepo{db: db}
}

// Upsert por key natural (user_id, dependent_id): escribir dos veces la
// misma key deja una sola fila.
func (r *FeedingRepo) Upsert(ctx context.Context, s feeding.Schedule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeding_schedules (
			id, user_id, dependent_id,
			interval_hours, last_feeding_time, next_feeding_time,
			is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id, dependent_id) DO UPDATE SET
			interval_hours = EXCLUDED.interval_hours,
			last_feeding_time = EXCLUDED.last_feeding_time,
			next_feeding_time = EXCLUDED.next_feeding_time,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`,
		s.ID,
		s.UserID,
		s.DependentID,
		s.IntervalHours,
		nullableTime(s.LastFeedingTime),
		nullableTime(s.NextFeedingTime),
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *FeedingRepo) Get(ctx context.Context, userID, dependentID string) (feeding.Schedule, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return feeding.Schedule{}, feeding.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, user_id, dependent_id,
			interval_hours, last_feeding_time, next_feeding_time,
			is_active, created_at, updated_at
		FROM feeding_schedules
		WHERE user_id = $1 AND dependent_id = $2
	`, userID, dependentID)

	s, err := scanSchedule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return feeding.Schedule{}, feeding.ErrNotFound
		}
		return feeding.Schedule{}, err
	}
	return s, nil
}

func (r *FeedingRepo) ListActiveByUser(ctx context.Context, userID string) ([]feeding.Schedule, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, user_id, dependent_id,
			interval_hours, last_feeding_time, next_feeding_time,
			is_active, created_at, updated_at
		FROM feeding_schedules
		WHERE user_id = $1 AND is_active
		ORDER BY dependent_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]feeding.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSchedule(row interface{ Scan(...any) error }) (feeding.Schedule, error) {
	var s feeding.Schedule
	var last, next sql.NullTime

	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.DependentID,
		&s.IntervalHours,
		&last,
		&next,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return feeding.Schedule{}, err
	}

	if last.Valid {
		t := last.Time
		s.LastFeedingTime = &t
	}
	if next.Valid {
		t := next.Time
		s.NextFeedingTime = &t
	}
	return s, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
