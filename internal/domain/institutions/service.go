package institutions

import (
	"context"
	"errors"
	"strings"
	"time"

	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/ledger"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
	"my-pet/internal/platform/oplog"
)

// Service es el IdentityRegistry: dueño de instituciones y plantillas.
// No depende de los otros registros.
type Service struct {
	rec   oplog.Recorder
	repo  Repository
	owner identity.ID
	now   func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.rec.Log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.rec.Metrics = m }
}

// NewService recibe la identidad del registry owner (único que crea instituciones).
func NewService(l ledger.Ledger, repo Repository, owner identity.ID, opts ...Option) *Service {
	s := &Service{
		rec:   oplog.Recorder{Registry: "institutions", Ledger: l},
		repo:  repo,
		owner: owner,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Owner() identity.ID { return s.owner }

type AddInput struct {
	Name              string
	Kind              Kind
	ResponsiblePerson identity.ID
}

func (s *Service) AddInstitution(ctx context.Context, caller identity.ID, in AddInput) (Institution, error) {
	var out Institution
	err := s.rec.Mutate(ctx, "add_institution", func(ctx context.Context) error {
		if caller.IsZero() || caller != s.owner {
			return dErrors.New(dErrors.CodeUnauthorized, "only the registry owner can add institutions")
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeValidation, "name is required")
		}
		if !in.Kind.Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "kind must be Hospital or Shelter, got %q", in.Kind)
		}
		if err := identity.Validate(in.ResponsiblePerson); err != nil {
			return err
		}

		existing, err := s.repo.GetByResponsible(ctx, in.ResponsiblePerson)
		switch {
		case err == nil:
			return dErrors.Newf(dErrors.CodeDuplicateResponsiblePerson,
				"%s already heads institution %d", in.ResponsiblePerson, existing.ID)
		case !errors.Is(err, dErrors.ErrNotFound):
			return oplog.Internal(err, "lookup responsible person")
		}

		id, err := s.repo.NextID(ctx)
		if err != nil {
			return oplog.Internal(err, "next institution id")
		}

		inst := Institution{
			ID:                id,
			Name:              name,
			Kind:              in.Kind,
			ResponsiblePerson: in.ResponsiblePerson,
			Staff:             []identity.ID{},
			CreatedAt:         s.now().UTC(),
		}
		if err := s.repo.Create(ctx, inst); err != nil {
			return oplog.Internal(err, "create institution")
		}
		out = inst
		return nil
	})
	if err != nil {
		return Institution{}, err
	}
	return out, nil
}

// AddStaff es idempotente: si ya es staff no hace nada.
func (s *Service) AddStaff(ctx context.Context, caller identity.ID, institutionID uint64, member identity.ID) error {
	return s.rec.Mutate(ctx, "add_staff", func(ctx context.Context) error {
		inst, err := s.authorizeStaffChange(ctx, caller, institutionID, member)
		if err != nil {
			return err
		}
		if inst.HasStaff(member) {
			return nil
		}
		return oplog.Internal(s.repo.AddStaff(ctx, institutionID, member), "add staff")
	})
}

// RemoveStaff es idempotente: quitar a alguien ausente no falla.
func (s *Service) RemoveStaff(ctx context.Context, caller identity.ID, institutionID uint64, member identity.ID) error {
	return s.rec.Mutate(ctx, "remove_staff", func(ctx context.Context) error {
		inst, err := s.authorizeStaffChange(ctx, caller, institutionID, member)
		if err != nil {
			return err
		}
		if !inst.HasStaff(member) {
			return nil
		}
		return oplog.Internal(s.repo.RemoveStaff(ctx, institutionID, member), "remove staff")
	})
}

func (s *Service) authorizeStaffChange(ctx context.Context, caller identity.ID, institutionID uint64, member identity.ID) (Institution, error) {
	inst, err := s.get(ctx, institutionID)
	if err != nil {
		return Institution{}, err
	}
	if caller.IsZero() || caller != inst.ResponsiblePerson {
		return Institution{}, dErrors.Newf(dErrors.CodeUnauthorized,
			"only the responsible person can manage staff of institution %d", institutionID)
	}
	if err := identity.Validate(member); err != nil {
		return Institution{}, err
	}
	return inst, nil
}

func (s *Service) GetDetail(ctx context.Context, id uint64) (Institution, error) {
	var out Institution
	err := s.rec.View(ctx, func(ctx context.Context) error {
		inst, err := s.get(ctx, id)
		out = inst
		return err
	})
	return out, err
}

func (s *Service) IsStaff(ctx context.Context, institutionID uint64, member identity.ID) (bool, error) {
	inst, err := s.GetDetail(ctx, institutionID)
	if err != nil {
		return false, err
	}
	return inst.HasStaff(member), nil
}

// MembershipOf devuelve la institución por la que actúa una identidad:
// primero la que encabeza, si no la primera donde es staff (por id).
func (s *Service) MembershipOf(ctx context.Context, member identity.ID) (Institution, bool, error) {
	var (
		out   Institution
		found bool
	)
	err := s.rec.View(ctx, func(ctx context.Context) error {
		inst, err := s.repo.GetByResponsible(ctx, member)
		if err == nil {
			out, found = inst, true
			return nil
		}
		if !errors.Is(err, dErrors.ErrNotFound) {
			return oplog.Internal(err, "lookup responsible person")
		}

		items, err := s.repo.ListByStaff(ctx, member)
		if err != nil {
			return oplog.Internal(err, "list staff memberships")
		}
		if len(items) > 0 {
			out, found = items[0], true
		}
		return nil
	})
	if err != nil {
		return Institution{}, false, err
	}
	return out, found, nil
}

// InstitutionOf es MembershipOf reducido al id.
func (s *Service) InstitutionOf(ctx context.Context, member identity.ID) (uint64, bool, error) {
	inst, ok, err := s.MembershipOf(ctx, member)
	if err != nil || !ok {
		return 0, false, err
	}
	return inst.ID, true, nil
}

// Exists es la comprobación que usa AccountRegistry para orgId.
func (s *Service) Exists(ctx context.Context, id uint64) (bool, error) {
	_, err := s.GetDetail(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, dErrors.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]Institution, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "kind must be Hospital or Shelter, got %q", filter.Kind)
	}
	var out []Institution
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.repo.List(ctx, filter)
		out = items
		return oplog.Internal(err, "list institutions")
	})
	return out, err
}

func (s *Service) get(ctx context.Context, id uint64) (Institution, error) {
	if id == 0 {
		return Institution{}, dErrors.New(dErrors.CodeInstitutionNotFound, "institution 0 does not exist")
	}
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dErrors.ErrNotFound) {
			return Institution{}, dErrors.Newf(dErrors.CodeInstitutionNotFound, "institution %d does not exist", id)
		}
		return Institution{}, oplog.Internal(err, "load institution")
	}
	return inst, nil
}
