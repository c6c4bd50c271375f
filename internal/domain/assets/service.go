package assets

import (
	"context"
	"errors"
	"time"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/ledger"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
	"my-pet/internal/platform/oplog"
)

// Registrations lo implementa accounts.Service.
type Registrations interface {
	IsRegistered(ctx context.Context, id identity.ID) bool
}

// Directory lo implementa institutions.Service (solo lectura).
type Directory interface {
	GetDetail(ctx context.Context, id uint64) (institutions.Institution, error)
}

// Authorizer lo implementa access.Resolver.
type Authorizer interface {
	Authorize(ctx context.Context, id identity.ID, action access.Action) (access.Role, error)
	ActingInstitution(ctx context.Context, id identity.ID, kind institutions.Kind) (institutions.Institution, bool, error)
}

// Service es el AssetRegistry. Lee (nunca escribe) usuarios e instituciones.
type Service struct {
	rec oplog.Recorder

	pets      PetRepository
	medical   MedicalRepository
	adoptions AdoptionRepository
	rescues   RescueRepository

	accounts     Registrations
	institutions Directory
	authz        Authorizer

	now func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.rec.Log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.rec.Metrics = m }
}

func NewService(l ledger.Ledger, repos Repositories, accounts Registrations, dir Directory, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		rec:          oplog.Recorder{Registry: "assets", Ledger: l},
		pets:         repos.Pets,
		medical:      repos.Medical,
		adoptions:    repos.Adoptions,
		rescues:      repos.Rescues,
		accounts:     accounts,
		institutions: dir,
		authz:        authz,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) requireRegistered(ctx context.Context, caller identity.ID) error {
	if caller.IsZero() || !s.accounts.IsRegistered(ctx, caller) {
		return dErrors.Newf(dErrors.CodeNotRegistered, "%s has no profile", caller)
	}
	return nil
}

// institution traduce "no existe" a InstitutionNotFound.
func (s *Service) institution(ctx context.Context, id uint64) (institutions.Institution, error) {
	inst, err := s.institutions.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, dErrors.ErrNotFound) {
			return institutions.Institution{}, dErrors.Newf(dErrors.CodeInstitutionNotFound, "institution %d does not exist", id)
		}
		return institutions.Institution{}, oplog.Internal(err, "load institution")
	}
	return inst, nil
}

// memberOf: caller es responsable o staff de la institución id.
func (s *Service) memberOf(ctx context.Context, id uint64, caller identity.ID) (bool, error) {
	if id == 0 {
		return false, nil
	}
	inst, err := s.institution(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInstitutionNotFound) {
			return false, nil
		}
		return false, err
	}
	return inst.IsMember(caller), nil
}
