package access

import (
	"context"

	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
)

// MembershipLookup lo implementa institutions.Service.
type MembershipLookup interface {
	MembershipOf(ctx context.Context, member identity.ID) (institutions.Institution, bool, error)
}

// Resolver calcula el rol a partir de (identidad, owner, plantillas). Como no
// guarda nada, un cambio de plantilla se refleja en la siguiente consulta.
type Resolver struct {
	owner   identity.ID
	members MembershipLookup
}

func NewResolver(owner identity.ID, members MembershipLookup) *Resolver {
	return &Resolver{owner: owner, members: members}
}

func (r *Resolver) IsOwner(id identity.ID) bool {
	return !id.IsZero() && id == r.owner
}

func (r *Resolver) RoleOf(ctx context.Context, id identity.ID) (Role, error) {
	if r.IsOwner(id) {
		return RoleAdmin, nil
	}
	inst, ok, err := r.members.MembershipOf(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return RoleUser, nil
	}
	switch inst.Kind {
	case institutions.KindHospital:
		return RoleHospital, nil
	case institutions.KindShelter:
		return RoleShelter, nil
	default:
		return RoleUser, nil
	}
}

// Authorize devuelve Unauthorized si el rol derivado no permite la acción.
func (r *Resolver) Authorize(ctx context.Context, id identity.ID, action Action) (Role, error) {
	role, err := r.RoleOf(ctx, id)
	if err != nil {
		return "", err
	}
	if !Allows(role, action) {
		return role, dErrors.Newf(dErrors.CodeUnauthorized, "role %s cannot perform %s", role, action)
	}
	return role, nil
}

// ActingInstitution devuelve la institución de tipo kind por la que actúa id.
// A diferencia de RoleOf, el owner también puede actuar por una institución.
func (r *Resolver) ActingInstitution(ctx context.Context, id identity.ID, kind institutions.Kind) (institutions.Institution, bool, error) {
	inst, ok, err := r.members.MembershipOf(ctx, id)
	if err != nil || !ok {
		return institutions.Institution{}, false, err
	}
	if inst.Kind != kind {
		return institutions.Institution{}, false, nil
	}
	return inst, true, nil
}
