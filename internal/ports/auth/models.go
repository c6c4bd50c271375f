package auth

import "my-pet/internal/domain/identity"

// Claims representa al principal ya autenticado.
type Claims struct {
	Identity  identity.ID
	PublicKey string // hex; vacío en modo dev
}

// SignedRequest es lo que el middleware extrae del request para verificar.
type SignedRequest struct {
	Method    string
	Path      string
	Timestamp string // RFC3339
	PublicKey string // hex ed25519
	Signature string // hex
	Body      []byte
}
