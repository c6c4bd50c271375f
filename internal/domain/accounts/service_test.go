package accounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"my-pet/internal/adapters/storage/memory"
	"my-pet/internal/domain/access"
	"my-pet/internal/domain/accounts"
	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
)

const owner = identity.ID("0x1")

type fixedPets map[identity.ID][]uint64

func (f fixedPets) PetIDsOf(_ context.Context, id identity.ID) ([]uint64, error) {
	return f[id], nil
}

type serviceSuite struct {
	suite.Suite
	ctx   context.Context
	inst  *institutions.Service
	svc   *accounts.Service
	hosp  institutions.Institution
	shelt institutions.Institution
}

func TestService(t *testing.T) {
	suite.Run(t, new(serviceSuite))
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	st := memory.NewStore()
	s.inst = institutions.NewService(st, memory.NewInstitutionsRepo(st), owner)
	s.svc = accounts.NewService(st, memory.NewAccountsRepo(st), s.inst, access.NewResolver(owner, s.inst))

	var err error
	s.hosp, err = s.inst.AddInstitution(s.ctx, owner, institutions.AddInput{
		Name: "Hospital A", Kind: institutions.KindHospital, ResponsiblePerson: "0xa",
	})
	s.Require().NoError(err)
	s.shelt, err = s.inst.AddInstitution(s.ctx, owner, institutions.AddInput{
		Name: "Shelter B", Kind: institutions.KindShelter, ResponsiblePerson: "0xb",
	})
	s.Require().NoError(err)
}

func (s *serviceSuite) personal(name string) accounts.ProfileInput {
	return accounts.ProfileInput{Name: name, Email: name + "@mail.test", UserType: accounts.UserTypePersonal}
}

func (s *serviceSuite) TestSetProfileScenario() {
	u, err := s.svc.SetProfile(s.ctx, "0xc", s.personal("Bob"))
	s.Require().NoError(err)
	s.Equal(uint64(1), u.ID)
	s.Equal(identity.ID("0xc"), u.Wallet)
	s.Equal(access.RoleUser, u.Role)
	s.Empty(u.PetIDs)
}

func (s *serviceSuite) TestIdempotentUpsert() {
	first, err := s.svc.SetProfile(s.ctx, "0xc", s.personal("Bob"))
	s.Require().NoError(err)

	second, err := s.svc.SetProfile(s.ctx, "0xc", accounts.ProfileInput{
		Name: "Robert", Phone: "555", UserType: accounts.UserTypeInstitutional, OrgID: s.shelt.ID,
	})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.RegisteredAt, second.RegisteredAt)

	all, err := s.svc.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Robert", all[0].Name)
	s.Equal("", all[0].Email)
	s.Equal("555", all[0].Phone)
	s.Equal(accounts.UserTypeInstitutional, all[0].UserType)
	s.Equal(s.shelt.ID, all[0].OrgID)
}

func (s *serviceSuite) TestAffiliationInvariant() {
	cases := []struct {
		in   accounts.ProfileInput
		want error
	}{
		{accounts.ProfileInput{Name: "x", UserType: accounts.UserTypePersonal, OrgID: s.hosp.ID}, dErrors.ErrInvalidAffiliation},
		{accounts.ProfileInput{Name: "x", UserType: accounts.UserTypeInstitutional}, dErrors.ErrOrgRequired},
		{accounts.ProfileInput{Name: "x", UserType: accounts.UserTypeInstitutional, OrgID: 42}, dErrors.ErrOrgNotFound},
		{accounts.ProfileInput{Name: "x", UserType: "Robot"}, dErrors.ErrValidation},
		{accounts.ProfileInput{Name: " ", UserType: accounts.UserTypePersonal}, dErrors.ErrValidation},
		{accounts.ProfileInput{Name: "x", Email: "nope", UserType: accounts.UserTypePersonal}, dErrors.ErrValidation},
	}
	for _, tc := range cases {
		_, err := s.svc.SetProfile(s.ctx, "0xc", tc.in)
		s.ErrorIs(err, tc.want, "%+v", tc.in)
	}
	s.False(s.svc.IsRegistered(s.ctx, "0xc"))

	// el contador de usuarios no se comparte con el de instituciones
	u, err := s.svc.SetProfile(s.ctx, "0xc", accounts.ProfileInput{
		Name: "x", UserType: accounts.UserTypeInstitutional, OrgID: s.hosp.ID,
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), u.ID)
}

func (s *serviceSuite) TestDerivedRoleFollowsRoster() {
	_, err := s.svc.SetProfile(s.ctx, "0xd", s.personal("Dana"))
	s.Require().NoError(err)

	u, err := s.svc.GetInfo(s.ctx, "0xd")
	s.Require().NoError(err)
	s.Equal(access.RoleUser, u.Role)

	s.Require().NoError(s.inst.AddStaff(s.ctx, "0xa", s.hosp.ID, "0xd"))
	u, err = s.svc.GetInfo(s.ctx, "0xd")
	s.Require().NoError(err)
	s.Equal(access.RoleHospital, u.Role)

	s.Require().NoError(s.inst.RemoveStaff(s.ctx, "0xa", s.hosp.ID, "0xd"))
	role, err := s.svc.RoleOf(s.ctx, "0xd")
	s.Require().NoError(err)
	s.Equal(access.RoleUser, role)

	role, err = s.svc.RoleOf(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(access.RoleAdmin, role)

	role, err = s.svc.RoleOf(s.ctx, "0xb")
	s.Require().NoError(err)
	s.Equal(access.RoleShelter, role)
}

func (s *serviceSuite) TestGetInfoAndRegistration() {
	_, err := s.svc.GetInfo(s.ctx, "0xe")
	s.ErrorIs(err, dErrors.ErrNotRegistered)
	s.False(s.svc.IsRegistered(s.ctx, "0xe"))

	_, err = s.svc.SetProfile(s.ctx, "0xe", s.personal("Eve"))
	s.Require().NoError(err)
	s.True(s.svc.IsRegistered(s.ctx, "0xe"))
}

func (s *serviceSuite) TestPetIDsComeFromIndex() {
	s.svc.SetPetIndex(fixedPets{"0xc": {3, 1}})

	u, err := s.svc.SetProfile(s.ctx, "0xc", s.personal("Bob"))
	s.Require().NoError(err)
	s.Equal([]uint64{3, 1}, u.PetIDs)
}
