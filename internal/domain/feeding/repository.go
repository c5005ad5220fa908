package feeding

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("feeding schedule not found")

// Repository persiste schedules. Upsert usa (user_id, dependent_id) como
// key natural: escribir dos veces la misma key deja una sola fila.
type Repository interface {
	Upsert(ctx context.Context, s Schedule) error
	Get(ctx context.Context, userID, dependentID string) (Schedule, error)
	ListActiveByUser(ctx context.Context, userID string) ([]Schedule, error)
}
