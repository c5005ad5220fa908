package memsource

import (
	"context"
	"sync"

	"family-health-engine/internal/ports/healthdata"
)

// Source es una implementación in-memory seedeable de healthdata.Source,
// para dev (sin servicio de registros configurado) y tests.
type Source struct {
	mu sync.RWMutex

	users      []string
	dependents map[string][]healthdata.Dependent
	plans      map[string][]healthdata.MedicationPlan // key: userID + "/" + dependentID
	notices    map[string][]healthdata.LifecycleNotice
}

func New() *Source {
	return &Source{
		dependents: make(map[string][]healthdata.Dependent),
		plans:      make(map[string][]healthdata.MedicationPlan),
		notices:    make(map[string][]healthdata.LifecycleNotice),
	}
}

func (s *Source) SeedUser(userID string, deps ...healthdata.Dependent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userID)
	s.dependents[userID] = deps
}

func (s *Source) SeedPlans(userID, dependentID string, plans ...healthdata.MedicationPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[userID+"/"+dependentID] = plans
}

func (s *Source) SeedNotices(userID string, notices ...healthdata.LifecycleNotice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices[userID] = notices
}

func (s *Source) Users(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.users) {
		limit = len(s.users)
	}
	out := make([]string, limit)
	copy(out, s.users[:limit])
	return out, nil
}

func (s *Source) Dependents(ctx context.Context, userID string) ([]healthdata.Dependent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dependents[userID], nil
}

func (s *Source) MedicationPlans(ctx context.Context, userID, dependentID string) ([]healthdata.MedicationPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans[userID+"/"+dependentID], nil
}

func (s *Source) LifecycleNotices(ctx context.Context, userID string) ([]healthdata.LifecycleNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notices[userID], nil
}
