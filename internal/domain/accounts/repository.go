package accounts

import (
	"context"

	"my-pet/internal/domain/identity"
)

// Repository devuelve domainerrors.ErrNotFound cuando no hay perfil.
// Role y PetIDs no se guardan.
type Repository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByWallet(ctx context.Context, wallet identity.ID) (User, error)
	// List ordena por id asc.
	List(ctx context.Context) ([]User, error)
}
