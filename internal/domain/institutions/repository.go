package institutions

import (
	"context"

	"my-pet/internal/domain/identity"
)

// Repository devuelve domainerrors.ErrNotFound cuando no hay registro.
type Repository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, inst Institution) error
	AddStaff(ctx context.Context, institutionID uint64, member identity.ID) error
	RemoveStaff(ctx context.Context, institutionID uint64, member identity.ID) error

	GetByID(ctx context.Context, id uint64) (Institution, error)
	GetByResponsible(ctx context.Context, responsible identity.ID) (Institution, error)
	// ListByStaff ordena por id asc.
	ListByStaff(ctx context.Context, member identity.ID) ([]Institution, error)
	List(ctx context.Context, filter ListFilter) ([]Institution, error)
}

type ListFilter struct {
	Kind Kind // vacío = todas
}
