package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"family-health-engine/internal/domain/audit"
	"family-health-engine/internal/domain/rewards"
)

type fakeEventsRepo struct {
	byID map[string]Event
}

func newFakeEventsRepo() *fakeEventsRepo {
	return &fakeEventsRepo{byID: make(map[string]Event)}
}

func (f *fakeEventsRepo) CreatePending(_ context.Context, e Event) (bool, error) {
	for _, existing := range f.byID {
		if existing.TriggerKey == e.TriggerKey && existing.Open() {
			return false, nil
		}
	}
	f.byID[e.ID] = e
	return true, nil
}

func (f *fakeEventsRepo) GetByID(_ context.Context, id string) (Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeEventsRepo) ListByUser(_ context.Context, userID string, _ ListFilter) ([]Event, error) {
	out := make([]Event, 0)
	for _, e := range f.byID {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventsRepo) ActivateOnce(_ context.Context, id string) (bool, error) {
	e, ok := f.byID[id]
	if !ok || e.Status != EventStatusPending {
		return false, nil
	}
	e.Status = EventStatusActive
	f.byID[id] = e
	return true, nil
}

func (f *fakeEventsRepo) CompleteOnce(_ context.Context, id string, points, experience int, completedAt time.Time) (bool, error) {
	e, ok := f.byID[id]
	if !ok || e.Status == EventStatusCompleted {
		return false, nil
	}
	e.Status = EventStatusCompleted
	e.PointsEarned = points
	e.ExperienceEarned = experience
	e.CompletedAt = &completedAt
	f.byID[id] = e
	return true, nil
}

// fakeLedger cuenta las emisiones; failAward simula un ledger caído.
type fakeLedger struct {
	awards    int
	total     int
	failAward bool
}

func (f *fakeLedger) Award(_ context.Context, _ string, points, _ int) (rewards.AwardResult, error) {
	if f.failAward {
		return rewards.AwardResult{}, errors.New("ledger down")
	}
	f.awards++
	f.total += points
	return rewards.AwardResult{NewTotal: f.total, StreakDays: 1, Level: 1}, nil
}

func (f *fakeLedger) Snapshot(_ context.Context, userID string) (rewards.Ledger, error) {
	return rewards.Ledger{UserID: userID, TotalPoints: f.total, StreakDays: 1}, nil
}

type fakeAuditLog struct {
	records []audit.Record
	fail    bool
}

func (f *fakeAuditLog) Append(_ context.Context, rec audit.Record) error {
	if f.fail {
		return errors.New("audit down")
	}
	f.records = append(f.records, rec)
	return nil
}

func seedEvent(repo *fakeEventsRepo, typ EventType, pri Priority) Event {
	e := NewPending("user-1", "dep-1", typ, pri, "key-"+string(typ), time.Now(), Payload{}, time.Now())
	repo.byID[e.ID] = e
	return e
}

func TestComplete_AppliesPriorityMultiplier(t *testing.T) {
	repo := newFakeEventsRepo()
	ledger := &fakeLedger{}
	log := &fakeAuditLog{}
	svc := NewService(repo, ledger, log, DefaultRewardTable())

	e := seedEvent(repo, EventTypeMedication, PriorityUrgent)

	res, err := svc.Complete(context.Background(), e.ID, "user-1", CompleteInput{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	// MEDICATION base 50 × urgent 2.0
	if res.Points != 100 || res.Experience != 1000 {
		t.Fatalf("expected 100/1000, got %d/%d", res.Points, res.Experience)
	}
	if res.Event.Status != EventStatusCompleted || res.Event.CompletedAt == nil {
		t.Fatalf("event not completed: %+v", res.Event)
	}
	if len(log.records) != 1 || log.records[0].Points != 100 {
		t.Fatalf("interaction record missing or wrong: %+v", log.records)
	}
}

func TestComplete_LowPriorityFloorsPoints(t *testing.T) {
	repo := newFakeEventsRepo()
	svc := NewService(repo, &fakeLedger{}, &fakeAuditLog{}, DefaultRewardTable())

	// FEEDING base 30 × low 0.5 = 15
	e := seedEvent(repo, EventTypeFeeding, PriorityLow)

	res, err := svc.Complete(context.Background(), e.ID, "user-1", CompleteInput{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Points != 15 || res.Experience != 150 {
		t.Fatalf("expected 15/150, got %d/%d", res.Points, res.Experience)
	}
}

func TestComplete_AtMostOnceReward(t *testing.T) {
	repo := newFakeEventsRepo()
	ledger := &fakeLedger{}
	svc := NewService(repo, ledger, &fakeAuditLog{}, DefaultRewardTable())
	ctx := context.Background()

	e := seedEvent(repo, EventTypeVaccination, PriorityNormal)

	first, err := svc.Complete(ctx, e.ID, "user-1", CompleteInput{})
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	second, err := svc.Complete(ctx, e.ID, "user-1", CompleteInput{})
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}

	if !second.AlreadyCompleted {
		t.Fatalf("retry not flagged as already completed")
	}
	if second.Points != first.Points || second.NewTotal != first.NewTotal {
		t.Fatalf("retry diverged: first=%+v second=%+v", first, second)
	}
	if ledger.awards != 1 {
		t.Fatalf("expected exactly 1 ledger award, got %d", ledger.awards)
	}
}

func TestComplete_Overrides(t *testing.T) {
	repo := newFakeEventsRepo()
	svc := NewService(repo, &fakeLedger{}, &fakeAuditLog{}, DefaultRewardTable())
	ctx := context.Background()

	e := seedEvent(repo, EventTypeCustom, PriorityNormal)

	pts := 7
	res, err := svc.Complete(ctx, e.ID, "user-1", CompleteInput{OverridePoints: &pts})
	if err != nil {
		t.Fatalf("complete with override: %v", err)
	}
	if res.Points != 7 || res.Experience != 70 {
		t.Fatalf("expected 7/70, got %d/%d", res.Points, res.Experience)
	}

	bad := 0
	e2 := seedEvent(repo, EventTypeCustom, PriorityLow)
	if _, err := svc.Complete(ctx, e2.ID, "user-1", CompleteInput{OverridePoints: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero override, got %v", err)
	}
}

func TestComplete_LedgerFailureLeavesEventCompleted(t *testing.T) {
	repo := newFakeEventsRepo()
	ledger := &fakeLedger{failAward: true}
	svc := NewService(repo, ledger, &fakeAuditLog{}, DefaultRewardTable())

	e := seedEvent(repo, EventTypeHealthCheckup, PriorityNormal)

	res, err := svc.Complete(context.Background(), e.ID, "user-1", CompleteInput{})
	if !errors.Is(err, ErrRewardNotApplied) {
		t.Fatalf("expected ErrRewardNotApplied, got %v", err)
	}
	// Sin rollback: el evento queda completado con su reward persistido
	if res.Event.Status != EventStatusCompleted || res.Points != 100 {
		t.Fatalf("event state lost on ledger failure: %+v", res)
	}
	stored, _ := repo.GetByID(context.Background(), e.ID)
	if stored.Status != EventStatusCompleted {
		t.Fatalf("stored event rolled back: %+v", stored)
	}
}

func TestComplete_AuditFailureSurfaces(t *testing.T) {
	repo := newFakeEventsRepo()
	ledger := &fakeLedger{}
	svc := NewService(repo, ledger, &fakeAuditLog{fail: true}, DefaultRewardTable())

	e := seedEvent(repo, EventTypeMedication, PriorityNormal)

	res, err := svc.Complete(context.Background(), e.ID, "user-1", CompleteInput{})
	if !errors.Is(err, ErrAuditNotAppended) {
		t.Fatalf("expected ErrAuditNotAppended, got %v", err)
	}
	// El ledger sí se actualizó; solo falta el record
	if ledger.awards != 1 || res.NewTotal != 50 {
		t.Fatalf("ledger state unexpected: awards=%d res=%+v", ledger.awards, res)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	repo := newFakeEventsRepo()
	svc := NewService(repo, &fakeLedger{}, &fakeAuditLog{}, DefaultRewardTable())
	ctx := context.Background()

	e := seedEvent(repo, EventTypeMedication, PriorityNormal)

	first, err := svc.Activate(ctx, e.ID, "user-1")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if first.Status != EventStatusActive {
		t.Fatalf("expected active, got %s", first.Status)
	}

	second, err := svc.Activate(ctx, e.ID, "user-1")
	if err != nil {
		t.Fatalf("re-activate: %v", err)
	}
	if second.Status != EventStatusActive {
		t.Fatalf("re-activate changed status: %s", second.Status)
	}
}

func TestOwnership_OtherUserSeesNotFound(t *testing.T) {
	repo := newFakeEventsRepo()
	svc := NewService(repo, &fakeLedger{}, &fakeAuditLog{}, DefaultRewardTable())
	ctx := context.Background()

	e := seedEvent(repo, EventTypeMedication, PriorityNormal)

	if _, err := svc.Activate(ctx, e.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign activate, got %v", err)
	}
	if _, err := svc.Complete(ctx, e.ID, "user-2", CompleteInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign complete, got %v", err)
	}
}

func TestRewardTableFromMaps_OverridesAndDefaults(t *testing.T) {
	table := RewardTableFromMaps(
		map[string]int{"medication": 75, "unknown_type": 999},
		map[string]float64{"urgent": 3.0},
		5,
	)

	pts, exp := table.Compute(EventTypeMedication, PriorityUrgent)
	if pts != 225 || exp != 1125 {
		t.Fatalf("expected 225/1125, got %d/%d", pts, exp)
	}

	// Lo no overrideado conserva el default
	pts, _ = table.Compute(EventTypeFeeding, PriorityNormal)
	if pts != 30 {
		t.Fatalf("expected default feeding 30, got %d", pts)
	}

	// Tipo desconocido cae a CUSTOM
	pts, _ = table.Compute(EventType("MYSTERY"), PriorityNormal)
	if pts != 40 {
		t.Fatalf("expected custom fallback 40, got %d", pts)
	}
}
