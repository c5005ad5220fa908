package rewards

import "time"

// Ledger es el agregado de gamificación por usuario: puntos acumulados,
// racha de días y logros. Se crea lazy con el primer reward y solo se
// escribe a través de Service.Award (único writer permitido).
type Ledger struct {
	UserID string

	TotalPoints     int
	TotalExperience int

	// Días calendario consecutivos con al menos un evento completado.
	StreakDays int

	// Append-only: un badge ganado nunca se revoca.
	Badges []string

	// Append-only: desbloqueos cosméticos por nivel.
	CosmeticUnlocks []string

	// Fecha (truncada a día) de la última completion que tocó el ledger.
	LastCompletedDate *time.Time

	// Guard optimista: el storage solo aplica un Upsert si la versión
	// leída sigue vigente. 0 = fila todavía no creada.
	Version int

	UpdatedAt time.Time
}

// Level deriva el nivel de la experiencia acumulada: 1 + exp/1000.
func (l Ledger) Level() int {
	return 1 + l.TotalExperience/1000
}

func (l Ledger) HasBadge(id string) bool {
	for _, b := range l.Badges {
		if b == id {
			return true
		}
	}
	return false
}

func (l Ledger) HasCosmetic(id string) bool {
	for _, c := range l.CosmeticUnlocks {
		if c == id {
			return true
		}
	}
	return false
}
