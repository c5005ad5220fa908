package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"family-health-engine/internal/domain/feeding"
)

type feedingRepo struct {
	mu    sync.RWMutex
	byKey map[string]feeding.Schedule // key: userID + "/" + dependentID
}

func NewFeedingRepo() feeding.Repository {
	return &feedingRepo{
		byKey: make(map[string]feeding.Schedule),
	}
}

func scheduleKey(userID, dependentID string) string {
	return userID + "/" + dependentID
}

func (r *feedingRepo) Upsert(ctx context.Context, s feeding.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.UserID == "" {
		return errors.New("user id required")
	}
	r.byKey[scheduleKey(s.UserID, s.DependentID)] = s
	return nil
}

func (r *feedingRepo) Get(ctx context.Context, userID, dependentID string) (feeding.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byKey[scheduleKey(userID, dependentID)]
	if !ok {
		return feeding.Schedule{}, feeding.ErrNotFound
	}
	return s, nil
}

func (r *feedingRepo) ListActiveByUser(ctx context.Context, userID string) ([]feeding.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]feeding.Schedule, 0)
	for _, s := range r.byKey {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DependentID < out[j].DependentID
	})
	return out, nil
}
