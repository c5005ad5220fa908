package feeding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type SetScheduleInput struct {
	IntervalHours float64
	IsActive      bool
}

// SetSchedule crea o actualiza el plan del dependiente (upsert por
// user+dependiente) y deja el próximo horario inicializado.
func (s *Service) SetSchedule(ctx context.Context, userID, dependentID string, in SetScheduleInput) (Schedule, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dependentID) == "" {
		return Schedule{}, ErrInvalidInput
	}
	if in.IntervalHours <= 0 {
		return Schedule{}, ErrInvalidInput
	}

	now := s.now()

	sched, err := s.repo.Get(ctx, userID, dependentID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Schedule{}, err
		}
		sched = Schedule{
			ID:          uuid.NewString(),
			UserID:      userID,
			DependentID: dependentID,
			CreatedAt:   now,
		}
	}

	sched.IntervalHours = in.IntervalHours
	sched.IsActive = in.IsActive
	if in.IsActive {
		next := NextFeedingTime(sched.LastFeedingTime, sched.NextFeedingTime, sched.IntervalHours, now)
		sched.NextFeedingTime = &next
	}
	sched.UpdatedAt = now

	if err := s.repo.Upsert(ctx, sched); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

// RecordFeeding registra una alimentación completada (acción externa) y
// recomputa el próximo horario desde ella.
func (s *Service) RecordFeeding(ctx context.Context, userID, dependentID string, at time.Time) (Schedule, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dependentID) == "" {
		return Schedule{}, ErrInvalidInput
	}

	sched, err := s.repo.Get(ctx, userID, dependentID)
	if err != nil {
		return Schedule{}, err
	}

	now := s.now()
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		return Schedule{}, ErrInvalidInput
	}

	sched.LastFeedingTime = &at
	// stored=nil: después de alimentar siempre se recomputa desde la toma.
	next := NextFeedingTime(&at, nil, sched.IntervalHours, now)
	sched.NextFeedingTime = &next
	sched.UpdatedAt = now

	if err := s.repo.Upsert(ctx, sched); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

// Refresh recomputa el próximo horario si quedó vencido o sin inicializar;
// lo usa el scheduler antes de materializar el evento. Devuelve el schedule
// con NextFeedingTime garantizado no-nil si está activo.
func (s *Service) Refresh(ctx context.Context, sched Schedule) (Schedule, error) {
	if !sched.IsActive {
		return sched, nil
	}

	now := s.now()
	next := NextFeedingTime(sched.LastFeedingTime, sched.NextFeedingTime, sched.IntervalHours, now)

	if sched.NextFeedingTime != nil && sched.NextFeedingTime.Equal(next) {
		return sched, nil
	}

	sched.NextFeedingTime = &next
	sched.UpdatedAt = now
	if err := s.repo.Upsert(ctx, sched); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}

func (s *Service) Get(ctx context.Context, userID, dependentID string) (Schedule, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(dependentID) == "" {
		return Schedule{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, userID, dependentID)
}

func (s *Service) ListActiveByUser(ctx context.Context, userID string) ([]Schedule, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByUser(ctx, userID)
}
