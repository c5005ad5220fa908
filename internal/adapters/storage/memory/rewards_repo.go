package memory

import (
	"context"
	"errors"
	"sync"

	"family-health-engine/internal/domain/rewards"
)

type rewardsRepo struct {
	mu       sync.RWMutex
	byUserID map[string]rewards.Ledger
}

func NewRewardsRepo() rewards.Repository {
	return &rewardsRepo{
		byUserID: make(map[string]rewards.Ledger),
	}
}

func (r *rewardsRepo) Get(ctx context.Context, userID string) (rewards.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byUserID[userID]
	if !ok {
		return rewards.Ledger{}, rewards.ErrNotFound
	}
	return l, nil
}

// Upsert aplica solo si la versión leída por el caller sigue vigente,
// igual que el WHERE version = $n del adapter de postgres.
func (r *rewardsRepo) Upsert(ctx context.Context, l rewards.Ledger) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.UserID == "" {
		return false, errors.New("user id required")
	}

	cur, exists := r.byUserID[l.UserID]
	if exists && cur.Version != l.Version {
		return false, nil
	}
	if !exists && l.Version != 0 {
		return false, nil
	}

	l.Version++
	r.byUserID[l.UserID] = l
	return true, nil
}
