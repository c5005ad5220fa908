package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"family-health-engine/internal/domain/events"
)

type eventsRepo struct {
	mu   sync.RWMutex
	byID map[string]events.Event
}

func NewEventsRepo() events.Repository {
	return &eventsRepo{
		byID: make(map[string]events.Event),
	}
}

func (r *eventsRepo) CreatePending(ctx context.Context, e events.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return false, errors.New("event id required")
	}
	if e.TriggerKey == "" {
		return false, errors.New("trigger key required")
	}

	// Misma semántica que el INSERT condicional de Postgres.
	for _, existing := range r.byID {
		if existing.TriggerKey == e.TriggerKey && existing.Open() {
			return false, nil
		}
	}

	e.Status = events.EventStatusPending
	r.byID[e.ID] = e
	return true, nil
}

func (r *eventsRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (r *eventsRepo) ListByUser(ctx context.Context, userID string, filter events.ListFilter) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]events.Event, 0)
	for _, e := range r.byID {
		if e.UserID != userID {
			continue
		}

		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, e.Status) {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, e.Type) {
			continue
		}
		if filter.DependentID != nil && e.DependentID != *filter.DependentID {
			continue
		}
		if filter.From != nil && e.ScheduledTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.ScheduledTime.After(*filter.To) {
			continue
		}

		out = append(out, e)
	}

	// Urgencia primero, después hora programada.
	sort.Slice(out, func(i, j int) bool {
		ri, rj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *eventsRepo) ActivateOnce(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return false, events.ErrNotFound
	}
	if e.Status != events.EventStatusPending {
		return false, nil
	}
	e.Status = events.EventStatusActive
	r.byID[id] = e
	return true, nil
}

func (r *eventsRepo) CompleteOnce(ctx context.Context, id string, points, experience int, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return false, events.ErrNotFound
	}
	if e.Status == events.EventStatusCompleted {
		return false, nil
	}

	e.Status = events.EventStatusCompleted
	e.PointsEarned = points
	e.ExperienceEarned = experience
	t := completedAt
	e.CompletedAt = &t
	r.byID[id] = e
	return true, nil
}

func containsStatus(ss []events.EventStatus, s events.EventStatus) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsType(ts []events.EventType, t events.EventType) bool {
	for _, v := range ts {
		if v == t {
			return true
		}
	}
	return false
}

func priorityRank(p events.Priority) int {
	switch p {
	case events.PriorityUrgent:
		return 0
	case events.PriorityHigh:
		return 1
	case events.PriorityNormal:
		return 2
	default:
		return 3
	}
}
