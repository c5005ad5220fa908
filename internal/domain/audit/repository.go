package audit

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Append(ctx context.Context, rec Record) error

	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)

	// SumPointsByUser suma los puntos de todos los records del usuario;
	// el validador la contrasta contra el total del ledger.
	SumPointsByUser(ctx context.Context, userID string) (int, error)
}
