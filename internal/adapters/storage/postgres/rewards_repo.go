package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"family-health-engine/internal/domain/rewards"
)

type RewardsRepo struct {
	db *sql.DB
}

func NewRewardsRepo(db *sql.DB) *RewardsRepo {
	return &RewardsRepo{db: db}
}

func (r *RewardsRepo) Get(ctx context.Context, userID string) (rewards.Ledger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return rewards.Ledger{}, rewards.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			user_id, total_points, total_experience,
			streak_days, badges, cosmetic_unlocks,
			last_completed_date, version, updated_at
		FROM gamification_ledgers
		WHERE user_id = $1
	`, userID)

	var l rewards.Ledger
	var badges, cosmetics []byte
	var lastCompleted sql.NullTime

	if err := row.Scan(
		&l.UserID,
		&l.TotalPoints,
		&l.TotalExperience,
		&l.StreakDays,
		&badges,
		&cosmetics,
		&lastCompleted,
		&l.Version,
		&l.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return rewards.Ledger{}, rewards.ErrNotFound
		}
		return rewards.Ledger{}, err
	}

	if len(badges) > 0 {
		if err := json.Unmarshal(badges, &l.Badges); err != nil {
			return rewards.Ledger{}, fmt.Errorf("unmarshal badges: %w", err)
		}
	}
	if len(cosmetics) > 0 {
		if err := json.Unmarshal(cosmetics, &l.CosmeticUnlocks); err != nil {
			return rewards.Ledger{}, fmt.Errorf("unmarshal cosmetics: %w", err)
		}
	}
	if lastCompleted.Valid {
		t := lastCompleted.Time
		l.LastCompletedDate = &t
	}

	return l, nil
}

// Upsert es la única escritura del ledger: un solo statement keyed por
// user_id, condicionado por versión server-side. Si la fila avanzó desde
// el read del caller, el DO UPDATE no matchea y applied=false; el caller
// relee y reintenta. Nunca un overwrite plano tras un read separado.
func (r *RewardsRepo) Upsert(ctx context.Context, l rewards.Ledger) (bool, error) {
	badges, err := json.Marshal(emptyIfNil(l.Badges))
	if err != nil {
		return false, fmt.Errorf("marshal badges: %w", err)
	}
	cosmetics, err := json.Marshal(emptyIfNil(l.CosmeticUnlocks))
	if err != nil {
		return false, fmt.Errorf("marshal cosmetics: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO gamification_ledgers (
			user_id, total_points, total_experience,
			streak_days, badges, cosmetic_unlocks,
			last_completed_date, version, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,1,$9)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			total_experience = EXCLUDED.total_experience,
			streak_days = EXCLUDED.streak_days,
			badges = EXCLUDED.badges,
			cosmetic_unlocks = EXCLUDED.cosmetic_unlocks,
			last_completed_date = EXCLUDED.last_completed_date,
			version = gamification_ledgers.version + 1,
			updated_at = EXCLUDED.updated_at
		WHERE gamification_ledgers.version = $8
	`,
		l.UserID,
		l.TotalPoints,
		l.TotalExperience,
		l.StreakDays,
		badges,
		cosmetics,
		nullableTime(l.LastCompletedDate),
		l.Version,
		l.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
