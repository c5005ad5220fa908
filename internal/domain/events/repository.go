package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Repository persiste eventos. Las transiciones de estado son escrituras
// únicas condicionales (la condición viaja en el statement, no en un read
// previo del caller), lo que da idempotencia sin locks.
type Repository interface {
	// CreatePending inserta el evento solo si no existe ya uno abierto
	// (pending/active) con la misma TriggerKey. Devuelve si insertó.
	CreatePending(ctx context.Context, e Event) (created bool, err error)

	GetByID(ctx context.Context, id string) (Event, error)

	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Event, error)

	// ActivateOnce pasa pending -> active. applied=false si el evento ya
	// no estaba pending (no es error).
	ActivateOnce(ctx context.Context, id string) (applied bool, err error)

	// CompleteOnce persiste transición + reward en una sola escritura
	// condicionada a status != completed. applied=false si ya estaba
	// completado.
	CompleteOnce(ctx context.Context, id string, points, experience int, completedAt time.Time) (applied bool, err error)
}

type ListFilter struct {
	Statuses    []EventStatus
	Types       []EventType
	DependentID *string // nil = todos; puntero a "" = solo eventos propios
	From        *time.Time
	To          *time.Time
	Limit       int
}
