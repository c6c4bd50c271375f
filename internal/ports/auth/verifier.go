package auth

import "context"

// AuthVerifier verifica una firma y devuelve el principal o error.
type AuthVerifier interface {
	Verify(ctx context.Context, req SignedRequest) (Claims, error)
}
