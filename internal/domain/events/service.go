package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-health-engine/internal/domain/audit"
	"family-health-engine/internal/domain/rewards"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// El evento quedó completado pero el ledger no se actualizó; la
	// discrepancia queda para que el validador la detecte. No hay
	// rollback: los campos de reward del evento son autoritativos.
	ErrRewardNotApplied = errors.New("reward not applied to ledger")

	// Ledger actualizado pero el interaction record no se insertó.
	ErrAuditNotAppended = errors.New("interaction record not appended")
)

// RewardLedger es lo que el lifecycle manager necesita del módulo rewards.
type RewardLedger interface {
	Award(ctx context.Context, userID string, points, experience int) (rewards.AwardResult, error)
	Snapshot(ctx context.Context, userID string) (rewards.Ledger, error)
}

// AuditLog agrega interaction records (append-only).
type AuditLog interface {
	Append(ctx context.Context, rec audit.Record) error
}

// Service es el lifecycle manager: dueño de la máquina de estados
// pending -> active -> completed y del cómputo de rewards.
type Service struct {
	repo   Repository
	ledger RewardLedger
	log    AuditLog
	table  RewardTable
	now    func() time.Time
}

func NewService(repo Repository, ledger RewardLedger, log AuditLog, table RewardTable) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    log,
		table:  table,
		now:    time.Now,
	}
}

// NewPending arma un evento pending listo para CreatePending.
// Solo el scheduler crea eventos; esto mantiene la construcción en un lugar.
func NewPending(userID, dependentID string, typ EventType, pri Priority, triggerKey string, scheduled time.Time, payload Payload, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		UserID:        userID,
		DependentID:   dependentID,
		Type:          typ,
		Payload:       payload,
		TriggerKey:    triggerKey,
		ScheduledTime: scheduled,
		Status:        EventStatusPending,
		Priority:      pri,
		CreatedAt:     now,
	}
}

// Activate pasa el evento a active. Si no está pending es un no-op que
// devuelve el estado actual (idempotente).
func (s *Service) Activate(ctx context.Context, eventID, userID string) (Event, error) {
	e, err := s.ownedEvent(ctx, eventID, userID)
	if err != nil {
		return Event{}, err
	}

	if e.Status != EventStatusPending {
		return e, nil
	}

	applied, err := s.repo.ActivateOnce(ctx, e.ID)
	if err != nil {
		return Event{}, err
	}
	if applied {
		e.Status = EventStatusActive
		return e, nil
	}
	// Carrera: otro caller lo movió primero. Releer y devolver tal cual.
	return s.repo.GetByID(ctx, e.ID)
}

type CompleteInput struct {
	// Overrides opcionales del reward computado.
	OverridePoints     *int
	OverrideExperience *int
}

type CompleteResult struct {
	Event Event

	Points     int
	Experience int

	NewTotal               int
	StreakDays             int
	Level                  int
	NewlyEarnedBadges      []string
	NewlyUnlockedCosmetics []string

	// true si el evento ya estaba completado (repetición idempotente).
	AlreadyCompleted bool
}

// Complete cierra el evento y emite el reward:
//  1. computa puntos/experiencia (tabla prioridad×tipo, u overrides),
//  2. persiste transición + reward en una sola escritura condicional,
//  3. actualiza el ledger,
//  4. agrega el interaction record.
//
// Si (3) o (4) fallan después de (2), el evento queda completado y el error
// se devuelve envuelto en ErrRewardNotApplied / ErrAuditNotAppended.
func (s *Service) Complete(ctx context.Context, eventID, userID string, in CompleteInput) (CompleteResult, error) {
	e, err := s.ownedEvent(ctx, eventID, userID)
	if err != nil {
		return CompleteResult{}, err
	}

	if e.Status == EventStatusCompleted {
		return s.priorResult(ctx, e)
	}

	points, experience := s.table.Compute(e.Type, e.Priority)
	if in.OverridePoints != nil {
		if *in.OverridePoints <= 0 {
			return CompleteResult{}, fmt.Errorf("%w: override points must be positive", ErrInvalidInput)
		}
		points = *in.OverridePoints
		experience = points * s.table.ExperiencePerPoint
	}
	if in.OverrideExperience != nil {
		if *in.OverrideExperience < 0 {
			return CompleteResult{}, fmt.Errorf("%w: override experience must be >= 0", ErrInvalidInput)
		}
		experience = *in.OverrideExperience
	}

	now := s.now()
	applied, err := s.repo.CompleteOnce(ctx, e.ID, points, experience, now)
	if err != nil {
		return CompleteResult{}, err
	}
	if !applied {
		// Carrera: alguien completó entre el read y el write. El reward ya
		// persistido manda.
		e, err = s.repo.GetByID(ctx, e.ID)
		if err != nil {
			return CompleteResult{}, err
		}
		return s.priorResult(ctx, e)
	}

	e.Status = EventStatusCompleted
	e.PointsEarned = points
	e.ExperienceEarned = experience
	e.CompletedAt = &now

	res := CompleteResult{
		Event:      e,
		Points:     points,
		Experience: experience,
	}

	award, err := s.ledger.Award(ctx, e.UserID, points, experience)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrRewardNotApplied, err)
	}
	res.NewTotal = award.NewTotal
	res.StreakDays = award.StreakDays
	res.Level = award.Level
	res.NewlyEarnedBadges = award.NewlyEarnedBadges
	res.NewlyUnlockedCosmetics = award.NewlyUnlockedCosmetics

	rec := audit.Record{
		ID:          uuid.NewString(),
		EventID:     e.ID,
		UserID:      e.UserID,
		DependentID: e.DependentID,
		Points:      points,
		Experience:  experience,
		Snapshot: map[string]any{
			"event_type":  string(e.Type),
			"priority":    string(e.Priority),
			"trigger_key": e.TriggerKey,
			"new_total":   award.NewTotal,
			"streak_days": award.StreakDays,
			"new_badges":  award.NewlyEarnedBadges,
		},
		CreatedAt: now,
	}
	if err := s.log.Append(ctx, rec); err != nil {
		return res, fmt.Errorf("%w: %v", ErrAuditNotAppended, err)
	}

	return res, nil
}

func (s *Service) GetByID(ctx context.Context, eventID, userID string) (Event, error) {
	return s.ownedEvent(ctx, eventID, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// priorResult reconstruye el resultado de una completion previa sin tocar
// el ledger: mismos puntos ambas veces, el total refleja el reward una vez.
func (s *Service) priorResult(ctx context.Context, e Event) (CompleteResult, error) {
	l, err := s.ledger.Snapshot(ctx, e.UserID)
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{
		Event:            e,
		Points:           e.PointsEarned,
		Experience:       e.ExperienceEarned,
		NewTotal:         l.TotalPoints,
		StreakDays:       l.StreakDays,
		Level:            l.Level(),
		AlreadyCompleted: true,
	}, nil
}

// ownedEvent devuelve ErrNotFound también cuando el evento es de otro
// usuario (no filtramos existencia).
func (s *Service) ownedEvent(ctx context.Context, eventID, userID string) (Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" || strings.TrimSpace(userID) == "" {
		return Event{}, ErrInvalidInput
	}
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	if e.UserID != userID {
		return Event{}, ErrNotFound
	}
	return e, nil
}
