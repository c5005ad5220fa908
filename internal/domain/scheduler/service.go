package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-health-engine/internal/domain/events"
	"family-health-engine/internal/domain/feeding"
	"family-health-engine/internal/platform/logger"
	"family-health-engine/internal/ports/healthdata"
)

var ErrInvalidInput = errors.New("invalid input")

// Config del scheduler. Los defaults replican las constantes del producto;
// ambas son tunables, no load-bearing.
type Config struct {
	// Avisos de ciclo de vida vencidos hace más de N días se descartan en
	// vez de back-fillearse (evita una tormenta de replay tras downtime).
	LifecycleLookbackDays int

	// Máximo de usuarios por corrida del batch.
	BatchPageSize int
}

func (c Config) withDefaults() Config {
	if c.LifecycleLookbackDays <= 0 {
		c.LifecycleLookbackDays = 3
	}
	if c.BatchPageSize <= 0 {
		c.BatchPageSize = 1000
	}
	return c
}

// Service materializa eventos pending desde las fuentes de triggers.
// La idempotencia viene de la trigger key: CreatePending no inserta si ya
// hay un evento abierto con la misma identidad.
type Service struct {
	source  healthdata.Source
	events  events.Repository
	feeding *feeding.Service
	log     logger.Logger
	cfg     Config
	now     func() time.Time
}

func NewService(source healthdata.Source, eventsRepo events.Repository, feedingSvc *feeding.Service, log logger.Logger, cfg Config) *Service {
	return &Service{
		source:  source,
		events:  eventsRepo,
		feeding: feedingSvc,
		log:     log,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Counts resume una corrida de generación para un usuario.
type Counts struct {
	MedicationCreated int
	FeedingCreated    int
	LifecycleCreated  int

	// Unidades (user, trigger) que fallaron y se saltaron. No se
	// reintentan en la misma corrida; la próxima corrida las retoma.
	SkippedUnits int

	// Avisos de ciclo de vida fuera de la ventana de look-back.
	DroppedNotices int
}

func (c Counts) Created() int {
	return c.MedicationCreated + c.FeedingCreated + c.LifecycleCreated
}

func (c *Counts) merge(o Counts) {
	c.MedicationCreated += o.MedicationCreated
	c.FeedingCreated += o.FeedingCreated
	c.LifecycleCreated += o.LifecycleCreated
	c.SkippedUnits += o.SkippedUnits
	c.DroppedNotices += o.DroppedNotices
}

// GenerateForUser evalúa todas las fuentes de triggers del usuario.
// Orden dentro del usuario: medicación, alimentación, ciclo de vida.
// El fallo de una unidad no aborta el resto: se loguea, se cuenta y sigue.
func (s *Service) GenerateForUser(ctx context.Context, userID string) (Counts, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Counts{}, ErrInvalidInput
	}

	var counts Counts
	now := s.now()

	// Sujetos: el usuario mismo ("") + sus dependientes. Si la lista de
	// dependientes falla, procesamos al usuario solo y contamos el skip.
	subjects := []string{""}
	deps, err := s.source.Dependents(ctx, userID)
	if err != nil {
		s.skip(&counts, userID, "dependents", err)
	} else {
		for _, d := range deps {
			subjects = append(subjects, d.ID)
		}
	}

	for _, subject := range subjects {
		if err := s.generateMedication(ctx, userID, subject, now, &counts); err != nil {
			s.skip(&counts, userID, "medication:"+subjectLabel(subject), err)
		}
	}

	if err := s.generateFeeding(ctx, userID, now, &counts); err != nil {
		s.skip(&counts, userID, "feeding", err)
	}

	if err := s.generateLifecycle(ctx, userID, now, &counts); err != nil {
		s.skip(&counts, userID, "lifecycle", err)
	}

	return counts, nil
}

// BatchCounts resume una corrida completa del batch.
type BatchCounts struct {
	UsersProcessed int
	Counts
}

// GenerateBatch corre la generación para una página acotada de usuarios,
// secuencial. No hay cancelación a mitad de corrida: cada unidad fallida se
// salta y la corrida sigue hasta el final de la página.
func (s *Service) GenerateBatch(ctx context.Context) (BatchCounts, error) {
	userIDs, err := s.source.Users(ctx, s.cfg.BatchPageSize)
	if err != nil {
		return BatchCounts{}, fmt.Errorf("scheduler: list users: %w", err)
	}

	var out BatchCounts
	for _, uid := range userIDs {
		counts, err := s.GenerateForUser(ctx, uid)
		if err != nil {
			// Solo input inválido llega acá; las fallas de triggers ya
			// quedaron contadas adentro.
			s.skip(&out.Counts, uid, "user", err)
			continue
		}
		out.Counts.merge(counts)
		out.UsersProcessed++
	}
	return out, nil
}

// generateMedication materializa una toma por cada horario de cada plan
// activo hoy para el sujeto.
func (s *Service) generateMedication(ctx context.Context, userID, dependentID string, now time.Time, counts *Counts) error {
	plans, err := s.source.MedicationPlans(ctx, userID, dependentID)
	if err != nil {
		return err
	}

	day := dateOnly(now)
	for _, plan := range plans {
		if !plan.ActiveOn(day) {
			continue
		}
		for _, doseTime := range plan.DoseTimes {
			scheduled, err := atTimeOfDay(day, doseTime)
			if err != nil {
				s.skip(counts, userID, "medication:dose:"+doseTime, err)
				continue
			}

			key := fmt.Sprintf("med:%s:%s:%s", plan.ID, day.Format("2006-01-02"), doseTime)
			e := events.NewPending(userID, dependentID, events.EventTypeMedication,
				events.ParsePriority(plan.Priority), key, scheduled, events.Payload{
					Medication: &events.MedicationDetail{
						PlanID:   plan.ID,
						Name:     plan.Name,
						DoseTime: doseTime,
					},
				}, now)

			created, err := s.events.CreatePending(ctx, e)
			if err != nil {
				return err
			}
			if created {
				counts.MedicationCreated++
			}
		}
	}
	return nil
}

// generateFeeding materializa el próximo evento de alimentación de cada
// schedule activo. La trigger key incluye la ocurrencia exacta: cuando el
// horario avanza, la key cambia y nace el evento siguiente.
func (s *Service) generateFeeding(ctx context.Context, userID string, now time.Time, counts *Counts) error {
	schedules, err := s.feeding.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, sched := range schedules {
		sched, err := s.feeding.Refresh(ctx, sched)
		if err != nil {
			s.skip(counts, userID, "feeding:"+subjectLabel(sched.DependentID), err)
			continue
		}
		if sched.NextFeedingTime == nil {
			continue
		}
		next := *sched.NextFeedingTime

		key := fmt.Sprintf("feed:%s:%s", sched.DependentID, next.UTC().Format(time.RFC3339))
		e := events.NewPending(userID, sched.DependentID, events.EventTypeFeeding,
			events.PriorityNormal, key, next, events.Payload{
				Feeding: &events.FeedingDetail{
					IntervalHours: sched.IntervalHours,
					DueAt:         next,
				},
			}, now)

		created, err := s.events.CreatePending(ctx, e)
		if err != nil {
			s.skip(counts, userID, "feeding:"+subjectLabel(sched.DependentID), err)
			continue
		}
		if created {
			counts.FeedingCreated++
		}
	}
	return nil
}

// generateLifecycle materializa avisos pendientes dentro de la ventana:
// los vencidos hace más del look-back se descartan, no se back-fillean.
func (s *Service) generateLifecycle(ctx context.Context, userID string, now time.Time, counts *Counts) error {
	notices, err := s.source.LifecycleNotices(ctx, userID)
	if err != nil {
		return err
	}

	today := dateOnly(now)
	cutoff := today.AddDate(0, 0, -s.cfg.LifecycleLookbackDays)

	for _, n := range notices {
		due := dateOnly(n.DueDate)
		if due.Before(cutoff) {
			counts.DroppedNotices++
			continue
		}

		daysUntilDue := int(due.Sub(today).Hours() / 24)

		key := "life:" + n.ID
		e := events.NewPending(userID, n.DependentID, events.EventTypeLifecycleMilestone,
			events.ParsePriority(n.Priority), key, n.DueDate, events.Payload{
				Lifecycle: &events.LifecycleDetail{
					NoticeID:     n.ID,
					Category:     n.Category,
					DaysUntilDue: daysUntilDue,
					Prompt:       n.Title,
					Extra:        n.Extra,
				},
			}, now)

		created, err := s.events.CreatePending(ctx, e)
		if err != nil {
			s.skip(counts, userID, "lifecycle:"+n.ID, err)
			continue
		}
		if created {
			counts.LifecycleCreated++
		}
	}
	return nil
}

func (s *Service) skip(counts *Counts, userID, unit string, err error) {
	counts.SkippedUnits++
	if s.log != nil {
		s.log.Warn("trigger unit skipped", map[string]any{
			"user_id": userID,
			"unit":    unit,
			"error":   err.Error(),
		})
	}
}

func subjectLabel(dependentID string) string {
	if dependentID == "" {
		return "self"
	}
	return dependentID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// atTimeOfDay resuelve "HH:MM" sobre la fecha dada (UTC).
func atTimeOfDay(day time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dose time %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}
