package rewards

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// Puntos cero o negativos son error de input, no un no-op.
	ErrNonPositivePoints = errors.New("points must be positive")
	// Demasiadas escrituras concurrentes ganaron la versión del ledger.
	ErrLedgerContention = errors.New("ledger write contention")
)

// Reintentos del ciclo read-compute-write cuando el guard de versión
// rechaza la escritura. La contención real por usuario es bajísima.
const awardMaxAttempts = 5

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

// AwardResult es el snapshot resultante de una emisión de reward.
type AwardResult struct {
	NewTotal        int
	TotalExperience int
	StreakDays      int
	Level           int

	NewlyEarnedBadges      []string
	NewlyUnlockedCosmetics []string
}

// Award aplica puntos/experiencia al ledger del usuario:
// carga (o crea lazy) la fila, recalcula racha y badges sobre el snapshot
// actualizado y persiste todo en un solo upsert condicional por versión.
// Si otra escritura concurrente ganó la versión, relee y recalcula: dos
// rewards simultáneos para el mismo usuario nunca se pisan.
func (s *Service) Award(ctx context.Context, userID string, points, experience int) (AwardResult, error) {
	if strings.TrimSpace(userID) == "" {
		return AwardResult{}, ErrInvalidInput
	}
	if points <= 0 {
		return AwardResult{}, ErrNonPositivePoints
	}
	if experience < 0 {
		return AwardResult{}, ErrInvalidInput
	}

	for attempt := 0; attempt < awardMaxAttempts; attempt++ {
		l, err := s.repo.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return AwardResult{}, err
			}
			l = Ledger{UserID: userID}
		}

		now := s.now()
		today := dateOnly(now)

		l.TotalPoints += points
		l.TotalExperience += experience

		// Racha: derivada solo de last_completed_date y "hoy".
		// diff 0 => repetición en el mismo día, no infla la racha.
		// diff 1 => día consecutivo. diff > 1 => reset a 1.
		switch {
		case l.LastCompletedDate == nil:
			l.StreakDays = 1
		default:
			switch daysBetween(*l.LastCompletedDate, today) {
			case 0:
				// sin cambio
			case 1:
				l.StreakDays++
			default:
				l.StreakDays = 1
			}
		}
		l.LastCompletedDate = &today

		// Badges: predicados en orden de declaración sobre el snapshot ya
		// actualizado. Solo se agregan, nunca se quitan.
		newBadges := make([]string, 0)
		for _, def := range badgeDefs {
			if l.HasBadge(def.ID) {
				continue
			}
			if def.Qualifies(l) {
				l.Badges = append(l.Badges, def.ID)
				newBadges = append(newBadges, def.ID)
			}
		}

		// Cosméticos: gateados por nivel, append-only como los badges.
		newCosmetics := make([]string, 0)
		level := l.Level()
		for _, def := range cosmeticDefs {
			if level < def.MinLevel || l.HasCosmetic(def.ID) {
				continue
			}
			l.CosmeticUnlocks = append(l.CosmeticUnlocks, def.ID)
			newCosmetics = append(newCosmetics, def.ID)
		}

		l.UpdatedAt = now

		applied, err := s.repo.Upsert(ctx, l)
		if err != nil {
			return AwardResult{}, err
		}
		if !applied {
			// Versión vencida: otro Award ganó. Releer y recalcular.
			continue
		}

		return AwardResult{
			NewTotal:               l.TotalPoints,
			TotalExperience:        l.TotalExperience,
			StreakDays:             l.StreakDays,
			Level:                  level,
			NewlyEarnedBadges:      newBadges,
			NewlyUnlockedCosmetics: newCosmetics,
		}, nil
	}

	return AwardResult{}, ErrLedgerContention
}

// Snapshot devuelve el ledger actual (o uno vacío si todavía no existe).
func (s *Service) Snapshot(ctx context.Context, userID string) (Ledger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Ledger{}, ErrInvalidInput
	}
	l, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Ledger{UserID: userID}, nil
		}
		return Ledger{}, err
	}
	return l, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween asume fechas ya truncadas a día.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(dateOnly(from)).Hours() / 24)
}
