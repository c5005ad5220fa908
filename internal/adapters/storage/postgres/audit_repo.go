package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"family-health-engine/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append inserta el record; la tabla no tiene UPDATE en ningún camino.
func (r *AuditRepo) Append(ctx context.Context, rec audit.Record) error {
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO interaction_records (
			id, event_id, user_id, dependent_id,
			points, experience, snapshot, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		rec.ID,
		rec.EventID,
		rec.UserID,
		rec.DependentID,
		rec.Points,
		rec.Experience,
		snapshot,
		rec.CreatedAt,
	)
	return err
}

func (r *AuditRepo) ListByUser(ctx context.Context, userID string, limit int) ([]audit.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, event_id, user_id, dependent_id,
			points, experience, snapshot, created_at
		FROM interaction_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Record, 0)
	for rows.Next() {
		var rec audit.Record
		var snapshot []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.EventID,
			&rec.UserID,
			&rec.DependentID,
			&rec.Points,
			&rec.Experience,
			&snapshot,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
				return nil, fmt.Errorf("unmarshal snapshot: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *AuditRepo) SumPointsByUser(ctx context.Context, userID string) (int, error) {
	var sum sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points), 0)
		FROM interaction_records
		WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return int(sum.Int64), nil
}
