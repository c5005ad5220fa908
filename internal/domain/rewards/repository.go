package rewards

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("ledger not found")

// Repository persiste el ledger. Upsert debe ser una escritura única
// condicional: solo aplica si l.Version coincide con la versión almacenada
// (0 para filas nuevas) e incrementa la versión server-side. Devuelve
// applied=false sin error cuando otra escritura ganó la versión; el caller
// relee y reintenta. Nunca un overwrite plano tras un read separado.
type Repository interface {
	Get(ctx context.Context, userID string) (Ledger, error)
	Upsert(ctx context.Context, l Ledger) (applied bool, err error)
}
