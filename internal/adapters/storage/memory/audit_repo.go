package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"family-health-engine/internal/domain/audit"
)

type auditRepo struct {
	mu      sync.RWMutex
	records []audit.Record
}

func NewAuditRepo() audit.Repository {
	return &auditRepo{}
}

func (r *auditRepo) Append(ctx context.Context, rec audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	// Append-only: no hay camino de update.
	r.records = append(r.records, rec)
	return nil
}

func (r *auditRepo) ListByUser(ctx context.Context, userID string, limit int) ([]audit.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	out := make([]audit.Record, 0)
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *auditRepo) SumPointsByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := 0
	for _, rec := range r.records {
		if rec.UserID == userID {
			sum += rec.Points
		}
	}
	return sum, nil
}
