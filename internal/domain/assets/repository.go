package assets

import (
	"context"
	"time"

	"my-pet/internal/domain/identity"
)

// Todos los repos devuelven domainerrors.ErrNotFound cuando no hay registro.

type PetRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, p Pet) error
	// Update reemplaza el registro y mantiene los índices (dueño, estado);
	// una mascota removida sale de ambos.
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id uint64) (Pet, error)

	// ListByOwner respeta el orden de la lista del dueño.
	ListByOwner(ctx context.Context, owner identity.ID) ([]Pet, error)
	ListByAdoptionStatus(ctx context.Context, status AdoptionStatus) ([]Pet, error)
}

type MedicalRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Append(ctx context.Context, e MedicalEvent) error
	ListByPet(ctx context.Context, petID uint64, filter MedicalFilter) ([]MedicalEvent, error)
}

// MedicalFilter: rango [From, To], texto en diagnóstico/tratamiento.
// Orden por timestamp asc.
type MedicalFilter struct {
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}

type AdoptionRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Append(ctx context.Context, e AdoptionEvent) error
	ListByPet(ctx context.Context, petID uint64) ([]AdoptionEvent, error)
}

type RescueRepository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, r RescueRequest) error
	Update(ctx context.Context, r RescueRequest) error
	GetByID(ctx context.Context, id uint64) (RescueRequest, error)

	// Listados por id asc.
	ListByRequester(ctx context.Context, requester identity.ID) ([]RescueRequest, error)
	ListByStatus(ctx context.Context, status RescueStatus) ([]RescueRequest, error)
	List(ctx context.Context) ([]RescueRequest, error)
}

type Repositories struct {
	Pets      PetRepository
	Medical   MedicalRepository
	Adoptions AdoptionRepository
	Rescues   RescueRepository
}
