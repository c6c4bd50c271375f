package access

import (
	"context"
	"errors"
	"testing"

	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembers map[identity.ID]institutions.Institution

func (f fakeMembers) MembershipOf(_ context.Context, id identity.ID) (institutions.Institution, bool, error) {
	if id == "0xdead" {
		return institutions.Institution{}, false, errors.New("storage down")
	}
	inst, ok := f[id]
	return inst, ok, nil
}

func newResolver() *Resolver {
	return NewResolver(identity.MustParse("0x1"), fakeMembers{
		"0xa": {ID: 1, Kind: institutions.KindHospital, ResponsiblePerson: "0xa"},
		"0xb": {ID: 2, Kind: institutions.KindShelter, ResponsiblePerson: "0xb"},
		"0x1": {ID: 1, Kind: institutions.KindHospital, ResponsiblePerson: "0xa", Staff: []identity.ID{"0x1"}},
	})
}

func TestRoleOf(t *testing.T) {
	r := newResolver()
	ctx := context.Background()

	cases := map[identity.ID]Role{
		"0x1": RoleAdmin,
		"0xa": RoleHospital,
		"0xb": RoleShelter,
		"0xc": RoleUser,
	}
	for id, want := range cases {
		got, err := r.RoleOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, "role of %s", id)
	}

	_, err := r.RoleOf(ctx, "0xdead")
	require.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	r := newResolver()
	ctx := context.Background()

	_, err := r.Authorize(ctx, "0xb", ActionUpdateRescueStatus)
	require.NoError(t, err)

	role, err := r.Authorize(ctx, "0xc", ActionUpdateRescueStatus)
	require.ErrorIs(t, err, dErrors.ErrUnauthorized)
	assert.Equal(t, RoleUser, role)

	_, err = r.Authorize(ctx, "0xa", ActionListUsers)
	require.ErrorIs(t, err, dErrors.ErrUnauthorized)
}

func TestActingInstitution_OwnerCanActForHospital(t *testing.T) {
	r := newResolver()

	inst, ok, err := r.ActingInstitution(context.Background(), "0x1", institutions.KindHospital)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), inst.ID)

	_, ok, err = r.ActingInstitution(context.Background(), "0xb", institutions.KindHospital)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllows(t *testing.T) {
	assert.True(t, Allows(RoleHospital, ActionAppendMedical))
	assert.False(t, Allows(RoleShelter, ActionAppendMedical))
	assert.False(t, Allows(Role("Ghost"), ActionListUsers))
}
