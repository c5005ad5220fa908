package feeding

import "time"

// Schedule es el plan de alimentación de un dependiente (una fila por
// user+dependiente). El "feed completado" lo dispara una acción externa;
// acá vive el cómputo del próximo horario.
type Schedule struct {
	ID          string
	UserID      string
	DependentID string

	// Puede ser fraccional: 2.5 = 2h30m.
	IntervalHours float64

	LastFeedingTime *time.Time

	// Mientras is_active, siempre null (nunca alimentado, falta
	// inicializar) o >= al momento en que se computó por última vez.
	NextFeedingTime *time.Time

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval convierte las horas (posiblemente fraccionales) a Duration.
func (s Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalHours * float64(time.Hour))
}
