package events

import "time"

// Event es una unidad programada de feedback gamificado atada a un trigger
// de salud real. Lo crea solo el scheduler; lo muta solo el lifecycle
// manager; nunca se borra (los terminales quedan para auditoría/historial).
type Event struct {
	ID     string
	UserID string

	// Vacío = el evento es del usuario mismo; si no, referencia al
	// dependiente rastreado.
	DependentID string

	Type    EventType
	Payload Payload

	// Identidad natural del trigger que originó el evento
	// (user, dependiente, trigger, ocurrencia). Es la key de idempotencia
	// del scheduler: no puede haber dos eventos abiertos con la misma.
	TriggerKey string

	// Cuándo el evento se vuelve accionable.
	ScheduledTime time.Time

	Status   EventStatus
	Priority Priority

	// Se escriben exactamente una vez, al completar. Inmutables después.
	PointsEarned     int
	ExperienceEarned int

	// No-nil sii Status == completed.
	CompletedAt *time.Time

	CreatedAt time.Time
}

// Open indica si el evento todavía bloquea la creación de otro con la
// misma trigger key.
func (e Event) Open() bool {
	return e.Status == EventStatusPending || e.Status == EventStatusActive
}
