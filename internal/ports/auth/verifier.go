package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
// La autenticación es del host; el engine solo consume la identidad.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
