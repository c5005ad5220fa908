package audit

import "time"

// Record es una entrada del log de interacciones: referencia un evento y
// los puntos/experiencia otorgados, con un snapshot libre del contexto.
// Append-only: nunca se actualiza después del insert; es el rastro que el
// validador reproduce.
type Record struct {
	ID          string
	EventID     string
	UserID      string
	DependentID string

	Points     int
	Experience int

	Snapshot map[string]any

	CreatedAt time.Time
}
