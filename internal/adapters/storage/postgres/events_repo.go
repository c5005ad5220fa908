package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"family-health-engine/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

// CreatePending inserta solo si no hay un evento abierto con la misma
// trigger key. Un solo statement: la condición viaja en el INSERT, no en
// un read previo.
func (r *EventsRepo) CreatePending(ctx context.Context, e events.Event) (bool, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO health_events (
			id, user_id, dependent_id,
			type, payload, trigger_key,
			scheduled_time, status, priority,
			points_earned, experience_earned,
			completed_at, created_at
		)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,0,0,NULL,$10
		WHERE NOT EXISTS (
			SELECT 1 FROM health_events
			WHERE trigger_key = $6
			  AND status IN ('pending','active')
		)
	`,
		e.ID,
		e.UserID,
		e.DependentID,
		string(e.Type),
		payload,
		e.TriggerKey,
		e.ScheduledTime,
		string(events.EventStatusPending),
		string(e.Priority),
		e.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

const eventColumns = `
	id, user_id, dependent_id,
	type, payload, trigger_key,
	scheduled_time, status, priority,
	points_earned, experience_earned,
	completed_at, created_at
`

func scanEvent(row interface{ Scan(...any) error }) (events.Event, error) {
	var e events.Event
	var typ, status, priority string
	var payload []byte
	var completedAt sql.NullTime

	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.DependentID,
		&typ,
		&payload,
		&e.TriggerKey,
		&e.ScheduledTime,
		&status,
		&priority,
		&e.PointsEarned,
		&e.ExperienceEarned,
		&completedAt,
		&e.CreatedAt,
	); err != nil {
		return events.Event{}, err
	}

	e.Type = events.EventType(typ)
	e.Status = events.EventStatus(status)
	e.Priority = events.Priority(priority)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return events.Event{}, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.Event{}, events.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM health_events
		WHERE id = $1
	`, id)

	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return events.Event{}, events.ErrNotFound
		}
		return events.Event{}, err
	}
	return e, nil
}

func (r *EventsRepo) ListByUser(ctx context.Context, userID string, filter events.ListFilter) ([]events.Event, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + eventColumns + `
		FROM health_events
		WHERE user_id = $1
	`)

	args := []any{userID}
	argN := 2

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(s))
			argN++
		}
		sb.WriteString(" AND status IN (" + strings.Join(placeholders, ",") + ")")
	}

	if len(filter.Types) > 0 {
		placeholders := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(t))
			argN++
		}
		sb.WriteString(" AND type IN (" + strings.Join(placeholders, ",") + ")")
	}

	if filter.DependentID != nil {
		sb.WriteString(fmt.Sprintf(" AND dependent_id = $%d", argN))
		args = append(args, *filter.DependentID)
		argN++
	}

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_time <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	// Urgencia primero, después hora programada.
	sb.WriteString(`
		ORDER BY CASE priority
			WHEN 'urgent' THEN 0
			WHEN 'high' THEN 1
			WHEN 'normal' THEN 2
			ELSE 3
		END, scheduled_time ASC
	`)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventsRepo) ActivateOnce(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_events
		SET status = 'active'
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CompleteOnce: transición + reward en una sola escritura condicional.
// Si ya estaba completado no toca nada (points_earned es inmutable).
func (r *EventsRepo) CompleteOnce(ctx context.Context, id string, points, experience int, completedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_events
		SET status = 'completed',
		    points_earned = $2,
		    experience_earned = $3,
		    completed_at = $4
		WHERE id = $1 AND status <> 'completed'
	`, id, points, experience, completedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
