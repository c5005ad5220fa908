package memory

import (
	"context"
	"testing"
	"time"

	"family-health-engine/internal/domain/events"
)

func pendingEvent(id, userID, key string, pri events.Priority, scheduled time.Time) events.Event {
	return events.Event{
		ID:            id,
		UserID:        userID,
		Type:          events.EventTypeMedication,
		TriggerKey:    key,
		ScheduledTime: scheduled,
		Status:        events.EventStatusPending,
		Priority:      pri,
		CreatedAt:     scheduled,
	}
}

func TestEventsRepo_CreatePendingBlocksOpenDuplicates(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()
	now := time.Now()

	created, err := repo.CreatePending(ctx, pendingEvent("e1", "user-1", "med:plan:1", events.PriorityNormal, now))
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}

	// Misma key con evento abierto: no inserta
	created, err = repo.CreatePending(ctx, pendingEvent("e2", "user-1", "med:plan:1", events.PriorityNormal, now))
	if err != nil || created {
		t.Fatalf("duplicate create: created=%v err=%v", created, err)
	}

	// Completado el primero, la key queda libre para la próxima ocurrencia
	if applied, err := repo.CompleteOnce(ctx, "e1", 50, 500, now); err != nil || !applied {
		t.Fatalf("complete: applied=%v err=%v", applied, err)
	}
	created, err = repo.CreatePending(ctx, pendingEvent("e3", "user-1", "med:plan:1", events.PriorityNormal, now))
	if err != nil || !created {
		t.Fatalf("create after completion: created=%v err=%v", created, err)
	}
}

func TestEventsRepo_TransitionsApplyOnce(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()
	now := time.Now()

	if _, err := repo.CreatePending(ctx, pendingEvent("e1", "user-1", "k1", events.PriorityNormal, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if applied, _ := repo.ActivateOnce(ctx, "e1"); !applied {
		t.Fatalf("first activate not applied")
	}
	if applied, _ := repo.ActivateOnce(ctx, "e1"); applied {
		t.Fatalf("second activate applied twice")
	}

	if applied, _ := repo.CompleteOnce(ctx, "e1", 50, 500, now); !applied {
		t.Fatalf("first complete not applied")
	}
	if applied, _ := repo.CompleteOnce(ctx, "e1", 99, 990, now); applied {
		t.Fatalf("second complete applied twice")
	}

	e, err := repo.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// El reward del primer complete es el que queda
	if e.PointsEarned != 50 || e.CompletedAt == nil {
		t.Fatalf("unexpected final state: %+v", e)
	}
}

func TestEventsRepo_ListOrdersByUrgencyThenTime(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	_, _ = repo.CreatePending(ctx, pendingEvent("low", "user-1", "k1", events.PriorityLow, base))
	_, _ = repo.CreatePending(ctx, pendingEvent("urgent-late", "user-1", "k2", events.PriorityUrgent, base.Add(2*time.Hour)))
	_, _ = repo.CreatePending(ctx, pendingEvent("urgent-early", "user-1", "k3", events.PriorityUrgent, base))
	_, _ = repo.CreatePending(ctx, pendingEvent("other-user", "user-2", "k4", events.PriorityUrgent, base))

	list, err := repo.ListByUser(ctx, "user-1", events.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %d", len(list))
	}
	if list[0].ID != "urgent-early" || list[1].ID != "urgent-late" || list[2].ID != "low" {
		t.Fatalf("unexpected order: %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestEventsRepo_ListFilters(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()
	now := time.Now()

	e1 := pendingEvent("e1", "user-1", "k1", events.PriorityNormal, now)
	e1.DependentID = "dep-1"
	e2 := pendingEvent("e2", "user-1", "k2", events.PriorityNormal, now)
	e2.Type = events.EventTypeFeeding
	_, _ = repo.CreatePending(ctx, e1)
	_, _ = repo.CreatePending(ctx, e2)
	if _, err := repo.CompleteOnce(ctx, "e2", 30, 300, now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pending, _ := repo.ListByUser(ctx, "user-1", events.ListFilter{Statuses: []events.EventStatus{events.EventStatusPending}})
	if len(pending) != 1 || pending[0].ID != "e1" {
		t.Fatalf("status filter broken: %+v", pending)
	}

	feeding, _ := repo.ListByUser(ctx, "user-1", events.ListFilter{Types: []events.EventType{events.EventTypeFeeding}})
	if len(feeding) != 1 || feeding[0].ID != "e2" {
		t.Fatalf("type filter broken: %+v", feeding)
	}

	self := ""
	own, _ := repo.ListByUser(ctx, "user-1", events.ListFilter{DependentID: &self})
	if len(own) != 1 || own[0].ID != "e2" {
		t.Fatalf("dependent filter broken: %+v", own)
	}
}
