package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/ledger"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
	"my-pet/internal/platform/oplog"
)

// InstitutionLookup es lo único que AccountRegistry lee de IdentityRegistry.
type InstitutionLookup interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// RoleResolver lo implementa access.Resolver.
type RoleResolver interface {
	RoleOf(ctx context.Context, id identity.ID) (access.Role, error)
}

// PetIndex lo implementa AssetRegistry (solo lectura).
type PetIndex interface {
	PetIDsOf(ctx context.Context, owner identity.ID) ([]uint64, error)
}

// Service es el AccountRegistry.
type Service struct {
	rec          oplog.Recorder
	repo         Repository
	institutions InstitutionLookup
	roles        RoleResolver
	pets         PetIndex
	now          func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.rec.Log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.rec.Metrics = m }
}

func NewService(l ledger.Ledger, repo Repository, inst InstitutionLookup, roles RoleResolver, opts ...Option) *Service {
	s := &Service{
		rec:          oplog.Recorder{Registry: "accounts", Ledger: l},
		repo:         repo,
		institutions: inst,
		roles:        roles,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPetIndex se llama al cablear: AssetRegistry depende de este servicio,
// así que el índice de mascotas llega después de construirlo.
func (s *Service) SetPetIndex(idx PetIndex) {
	s.pets = idx
}

type ProfileInput struct {
	Name     string
	Email    string
	Phone    string
	UserType UserType
	OrgID    uint64
}

// SetProfile crea el perfil de caller o actualiza sus campos mutables.
func (s *Service) SetProfile(ctx context.Context, caller identity.ID, in ProfileInput) (User, error) {
	var out User
	err := s.rec.Mutate(ctx, "set_profile", func(ctx context.Context) error {
		if err := identity.Validate(caller); err != nil {
			return err
		}
		in.Name = strings.TrimSpace(in.Name)
		in.Email = strings.TrimSpace(in.Email)
		in.Phone = strings.TrimSpace(in.Phone)
		if in.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name is required")
		}
		if in.Email != "" && !strings.Contains(in.Email, "@") {
			return dErrors.Newf(dErrors.CodeValidation, "email %q is not valid", in.Email)
		}
		if err := s.validateAffiliation(ctx, in.UserType, in.OrgID); err != nil {
			return err
		}

		now := s.now().UTC()
		u, err := s.repo.GetByWallet(ctx, caller)
		switch {
		case err == nil:
			u.Name, u.Email, u.Phone = in.Name, in.Email, in.Phone
			u.UserType, u.OrgID = in.UserType, in.OrgID
			u.UpdatedAt = now
			if err := s.repo.Update(ctx, u); err != nil {
				return oplog.Internal(err, "update profile")
			}
		case errors.Is(err, dErrors.ErrNotFound):
			id, err := s.repo.NextID(ctx)
			if err != nil {
				return oplog.Internal(err, "next user id")
			}
			u = User{
				ID:           id,
				Wallet:       caller,
				Name:         in.Name,
				Email:        in.Email,
				Phone:        in.Phone,
				UserType:     in.UserType,
				OrgID:        in.OrgID,
				RegisteredAt: now,
				UpdatedAt:    now,
			}
			if err := s.repo.Create(ctx, u); err != nil {
				return oplog.Internal(err, "create profile")
			}
		default:
			return oplog.Internal(err, "load profile")
		}

		out, err = s.decorate(ctx, u)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

// validateAffiliation: Personal => orgId 0; Institutional => orgId de una
// institución existente.
func (s *Service) validateAffiliation(ctx context.Context, t UserType, orgID uint64) error {
	switch t {
	case UserTypePersonal:
		if orgID != 0 {
			return dErrors.Newf(dErrors.CodeInvalidAffiliation, "personal users cannot be affiliated (org %d)", orgID)
		}
		return nil
	case UserTypeInstitutional:
		if orgID == 0 {
			return dErrors.New(dErrors.CodeOrgRequired, "institutional users need an organization")
		}
		ok, err := s.institutions.Exists(ctx, orgID)
		if err != nil {
			return oplog.Internal(err, "lookup organization")
		}
		if !ok {
			return dErrors.Newf(dErrors.CodeOrgNotFound, "organization %d does not exist", orgID)
		}
		return nil
	default:
		return dErrors.Newf(dErrors.CodeValidation, "user type must be Personal or Institutional, got %q", t)
	}
}

// IsRegistered nunca falla: cualquier problema de lectura cuenta como "no".
func (s *Service) IsRegistered(ctx context.Context, id identity.ID) bool {
	registered := false
	_ = s.rec.View(ctx, func(ctx context.Context) error {
		_, err := s.repo.GetByWallet(ctx, id)
		registered = err == nil
		return nil
	})
	return registered
}

func (s *Service) GetInfo(ctx context.Context, id identity.ID) (User, error) {
	var out User
	err := s.rec.View(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByWallet(ctx, id)
		if err != nil {
			if errors.Is(err, dErrors.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeNotRegistered, "%s has no profile", id)
			}
			return oplog.Internal(err, "load profile")
		}
		out, err = s.decorate(ctx, u)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return out, nil
}

// ListAll no aplica control de acceso; el handler HTTP lo restringe a Admin.
func (s *Service) ListAll(ctx context.Context) ([]User, error) {
	var out []User
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.repo.List(ctx)
		if err != nil {
			return oplog.Internal(err, "list profiles")
		}
		out = make([]User, 0, len(items))
		for _, u := range items {
			d, err := s.decorate(ctx, u)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

// RoleOf no requiere perfil: el rol sale de la identidad.
func (s *Service) RoleOf(ctx context.Context, id identity.ID) (access.Role, error) {
	role, err := s.roles.RoleOf(ctx, id)
	return role, oplog.Internal(err, "resolve role")
}

func (s *Service) decorate(ctx context.Context, u User) (User, error) {
	role, err := s.RoleOf(ctx, u.Wallet)
	if err != nil {
		return User{}, err
	}
	u.Role = role

	u.PetIDs = []uint64{}
	if s.pets != nil {
		ids, err := s.pets.PetIDsOf(ctx, u.Wallet)
		if err != nil {
			return User{}, oplog.Internal(err, "load pet ids")
		}
		u.PetIDs = ids
	}
	return u, nil
}
