package assets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"my-pet/internal/adapters/storage/memory"
	"my-pet/internal/domain/access"
	"my-pet/internal/domain/accounts"
	"my-pet/internal/domain/assets"
	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
)

const owner = identity.ID("0x1")

// Hospital A: responsable 0xa, staff 0xd. Shelter B: responsable 0xb, staff 0xe.
// 0xc es un usuario personal.
type serviceSuite struct {
	suite.Suite
	ctx context.Context

	inst     *institutions.Service
	accounts *accounts.Service
	svc      *assets.Service
	pets     *flakyPets

	hospital institutions.Institution
	shelter  institutions.Institution
}

type flakyPets struct {
	assets.PetRepository
	failUpdates bool
}

func (f *flakyPets) Update(ctx context.Context, p assets.Pet) error {
	if f.failUpdates {
		return errors.New("disk full")
	}
	return f.PetRepository.Update(ctx, p)
}

func TestService(t *testing.T) {
	suite.Run(t, new(serviceSuite))
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	st := memory.NewStore()

	s.inst = institutions.NewService(st, memory.NewInstitutionsRepo(st), owner)
	resolver := access.NewResolver(owner, s.inst)
	s.accounts = accounts.NewService(st, memory.NewAccountsRepo(st), s.inst, resolver)

	repos := memory.NewAssetsRepos(st)
	s.pets = &flakyPets{PetRepository: repos.Pets}
	repos.Pets = s.pets
	s.svc = assets.NewService(st, repos, s.accounts, s.inst, resolver)
	s.accounts.SetPetIndex(s.svc)

	var err error
	s.hospital, err = s.inst.AddInstitution(s.ctx, owner, institutions.AddInput{
		Name: "Hospital A", Kind: institutions.KindHospital, ResponsiblePerson: "0xa",
	})
	s.Require().NoError(err)
	s.shelter, err = s.inst.AddInstitution(s.ctx, owner, institutions.AddInput{
		Name: "Shelter B", Kind: institutions.KindShelter, ResponsiblePerson: "0xb",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.inst.AddStaff(s.ctx, "0xa", s.hospital.ID, "0xd"))
	s.Require().NoError(s.inst.AddStaff(s.ctx, "0xb", s.shelter.ID, "0xe"))

	s.register("0xc", accounts.UserTypePersonal, 0)
	s.register("0xa", accounts.UserTypeInstitutional, s.hospital.ID)
	s.register("0xd", accounts.UserTypeInstitutional, s.hospital.ID)
	s.register("0xb", accounts.UserTypeInstitutional, s.shelter.ID)
	s.register("0xe", accounts.UserTypeInstitutional, s.shelter.ID)
}

func (s *serviceSuite) register(id identity.ID, t accounts.UserType, org uint64) {
	_, err := s.accounts.SetProfile(s.ctx, id, accounts.ProfileInput{Name: "user " + id.String(), UserType: t, OrgID: org})
	s.Require().NoError(err)
}

func (s *serviceSuite) addPet(caller identity.ID, name string) assets.Pet {
	p, err := s.svc.AddPet(s.ctx, caller, assets.PetInput{
		Name: name, Species: "dog", Breed: "beagle", Age: 3,
		Images:         []string{"ipfs://img-" + name},
		AdoptionStatus: assets.AdoptionNotAvailable,
	})
	s.Require().NoError(err)
	return p
}

func (s *serviceSuite) TestOwnershipScenario() {
	u, err := s.accounts.GetInfo(s.ctx, "0xc")
	s.Require().NoError(err)
	s.Equal(access.RoleUser, u.Role)

	p := s.addPet("0xc", "Rex")
	s.Equal(uint64(1), p.ID)
	s.Equal(identity.ID("0xc"), p.Owner)
	s.Equal(assets.HealthHealthy, p.HealthStatus)
	s.Zero(p.InstitutionID)

	_, err = s.svc.UpdatePet(s.ctx, "0xd", p.ID, assets.PetInput{Name: "Max", Species: "dog"})
	s.ErrorIs(err, dErrors.ErrNotOwner)
	s.ErrorIs(s.svc.RemovePet(s.ctx, "0xd", p.ID), dErrors.ErrNotOwner)

	updated, err := s.svc.UpdatePet(s.ctx, "0xc", p.ID, assets.PetInput{
		Name: "Max", Species: "dog", HealthStatus: assets.HealthSick, AdoptionStatus: assets.AdoptionAvailable,
	})
	s.Require().NoError(err)
	s.Equal("Max", updated.Name)
	s.Empty(updated.Images)
	s.Equal(assets.HealthSick, updated.HealthStatus)
	s.False(updated.LastUpdatedAt.Before(p.LastUpdatedAt))

	available, err := s.svc.GetByAdoptionStatus(s.ctx, assets.AdoptionAvailable)
	s.Require().NoError(err)
	s.Require().Len(available, 1)
	s.Equal(p.ID, available[0].ID)
}

func (s *serviceSuite) TestAddPetRequiresProfile() {
	_, err := s.svc.AddPet(s.ctx, "0xf", assets.PetInput{Name: "Rex", Species: "dog"})
	s.ErrorIs(err, dErrors.ErrNotRegistered)

	_, err = s.svc.AddPet(s.ctx, "0xc", assets.PetInput{Name: "Rex"})
	s.ErrorIs(err, dErrors.ErrValidation)
	_, err = s.svc.AddPet(s.ctx, "0xc", assets.PetInput{Name: "Rex", Species: "dog", HealthStatus: "Zombie"})
	s.ErrorIs(err, dErrors.ErrValidation)
	_, err = s.svc.AddPet(s.ctx, "0xc", assets.PetInput{Name: "Rex", Species: "dog", Images: []string{" "}})
	s.ErrorIs(err, dErrors.ErrValidation)

	// ningún rechazo consumió ids
	s.Equal(uint64(1), s.addPet("0xc", "Rex").ID)
}

func (s *serviceSuite) TestRemovePetKeepsHistory() {
	p := s.addPet("0xc", "Rex")
	keep := s.addPet("0xc", "Luna")
	_, err := s.svc.AddMedicalEvent(s.ctx, "0xd", p.ID, assets.MedicalInput{Diagnosis: "otitis", Treatment: "drops"})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RemovePet(s.ctx, "0xc", p.ID))

	owned, err := s.svc.GetByOwner(s.ctx, "0xc")
	s.Require().NoError(err)
	s.Require().Len(owned, 1)
	s.Equal(keep.ID, owned[0].ID)

	u, err := s.accounts.GetInfo(s.ctx, "0xc")
	s.Require().NoError(err)
	s.Equal([]uint64{keep.ID}, u.PetIDs)

	got, err := s.svc.GetPet(s.ctx, p.ID)
	s.Require().NoError(err)
	s.NotNil(got.RemovedAt)

	history, err := s.svc.ListMedicalHistory(s.ctx, p.ID, assets.MedicalFilter{})
	s.Require().NoError(err)
	s.Len(history, 1)

	_, err = s.svc.UpdatePet(s.ctx, "0xc", p.ID, assets.PetInput{Name: "Rex", Species: "dog"})
	s.ErrorIs(err, dErrors.ErrPetNotFound)
	s.ErrorIs(s.svc.RemovePet(s.ctx, "0xc", p.ID), dErrors.ErrPetNotFound)
}

func (s *serviceSuite) TestAdoptionTransfer() {
	p := s.addPet("0xc", "Rex")

	_, err := s.svc.AddAdoptionEvent(s.ctx, "0xd", p.ID, assets.AdoptionInput{Adopter: "0xf"})
	s.ErrorIs(err, dErrors.ErrNotOwner)
	_, err = s.svc.AddAdoptionEvent(s.ctx, "0xc", p.ID, assets.AdoptionInput{Adopter: "0xc"})
	s.ErrorIs(err, dErrors.ErrValidation)
	_, err = s.svc.AddAdoptionEvent(s.ctx, "0xc", p.ID, assets.AdoptionInput{Adopter: "0xf", InstitutionID: 99})
	s.ErrorIs(err, dErrors.ErrInstitutionNotFound)
	_, err = s.svc.AddAdoptionEvent(s.ctx, "0xc", 42, assets.AdoptionInput{Adopter: "0xf"})
	s.ErrorIs(err, dErrors.ErrPetNotFound)

	e, err := s.svc.AddAdoptionEvent(s.ctx, "0xc", p.ID, assets.AdoptionInput{Adopter: "0xf", Notes: " good home "})
	s.Require().NoError(err)
	s.Equal(identity.ID("0xc"), e.PreviousOwner)
	s.Equal("good home", e.Notes)

	got, err := s.svc.GetPet(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(identity.ID("0xf"), got.Owner)
	s.Equal(assets.AdoptionAdopted, got.AdoptionStatus)

	history, err := s.svc.ListAdoptionHistory(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(e.ID, history[0].ID)

	prev, err := s.svc.GetByOwner(s.ctx, "0xc")
	s.Require().NoError(err)
	s.Empty(prev)
	ids, err := s.svc.PetIDsOf(s.ctx, "0xf")
	s.Require().NoError(err)
	s.Equal([]uint64{p.ID}, ids)

	// el dueño anterior ya no puede tocarla
	_, err = s.svc.UpdatePet(s.ctx, "0xc", p.ID, assets.PetInput{Name: "Rex", Species: "dog"})
	s.ErrorIs(err, dErrors.ErrNotOwner)
}

func (s *serviceSuite) TestShelterAdministeredPet() {
	p := s.addPet("0xe", "Toby")
	s.Equal(s.shelter.ID, p.InstitutionID)

	// el responsable del refugio puede publicar, un tercero no
	got, err := s.svc.SetAdoptionStatus(s.ctx, "0xb", p.ID, assets.AdoptionAvailable)
	s.Require().NoError(err)
	s.Equal(assets.AdoptionAvailable, got.AdoptionStatus)
	_, err = s.svc.SetAdoptionStatus(s.ctx, "0xc", p.ID, assets.AdoptionProcessing)
	s.ErrorIs(err, dErrors.ErrNotOwner)
	_, err = s.svc.SetAdoptionStatus(s.ctx, "0xb", p.ID, "Sold")
	s.ErrorIs(err, dErrors.ErrValidation)

	_, err = s.svc.AddAdoptionEvent(s.ctx, "0xb", p.ID, assets.AdoptionInput{Adopter: "0xc", InstitutionID: s.hospital.ID})
	s.ErrorIs(err, dErrors.ErrUnauthorized)

	e, err := s.svc.AddAdoptionEvent(s.ctx, "0xb", p.ID, assets.AdoptionInput{Adopter: "0xc"})
	s.Require().NoError(err)
	s.Equal(identity.ID("0xe"), e.PreviousOwner)
	s.Equal(s.shelter.ID, e.InstitutionID)

	got, err = s.svc.GetPet(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(identity.ID("0xc"), got.Owner)
	s.Zero(got.InstitutionID)

	// adoptada, el refugio ya no la administra
	_, err = s.svc.SetAdoptionStatus(s.ctx, "0xb", p.ID, assets.AdoptionAvailable)
	s.ErrorIs(err, dErrors.ErrNotOwner)
}

func (s *serviceSuite) TestFailedTransferIsRolledBack() {
	p := s.addPet("0xc", "Rex")
	s.pets.failUpdates = true

	_, err := s.svc.AddAdoptionEvent(s.ctx, "0xc", p.ID, assets.AdoptionInput{Adopter: "0xf"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.pets.failUpdates = false
	history, err := s.svc.ListAdoptionHistory(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(history)

	got, err := s.svc.GetPet(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(identity.ID("0xc"), got.Owner)

	// el id del evento fallido no se consumió
	e, err := s.svc.AddAdoptionEvent(s.ctx, "0xc", p.ID, assets.AdoptionInput{Adopter: "0xf"})
	s.Require().NoError(err)
	s.Equal(uint64(1), e.ID)
}

func (s *serviceSuite) TestMedicalEvents() {
	p := s.addPet("0xc", "Rex")

	e, err := s.svc.AddMedicalEvent(s.ctx, "0xd", p.ID, assets.MedicalInput{Diagnosis: "otitis", Treatment: "drops"})
	s.Require().NoError(err)
	s.Equal(identity.ID("0xd"), e.Doctor)
	s.Equal(identity.ID("0xa"), e.Hospital)
	s.Equal(s.hospital.ID, e.InstitutionID)

	e2, err := s.svc.AddMedicalEvent(s.ctx, "0xa", p.ID, assets.MedicalInput{
		Diagnosis: "fracture", Treatment: "cast", Doctor: "0xd", InstitutionID: s.hospital.ID,
	})
	s.Require().NoError(err)
	s.Equal(identity.ID("0xd"), e2.Doctor)

	got, err := s.svc.GetPet(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal([]uint64{e.ID, e2.ID}, got.MedicalRecordIDs)

	for _, caller := range []identity.ID{"0xc", "0xe", "0xb"} {
		_, err = s.svc.AddMedicalEvent(s.ctx, caller, p.ID, assets.MedicalInput{Diagnosis: "x", Treatment: "y"})
		s.ErrorIs(err, dErrors.ErrUnauthorized, "caller %s", caller)
	}
	_, err = s.svc.AddMedicalEvent(s.ctx, "0xd", p.ID, assets.MedicalInput{Diagnosis: "x", Treatment: "y", InstitutionID: s.shelter.ID})
	s.ErrorIs(err, dErrors.ErrUnauthorized)
	_, err = s.svc.AddMedicalEvent(s.ctx, "0xd", 77, assets.MedicalInput{Diagnosis: "x", Treatment: "y"})
	s.ErrorIs(err, dErrors.ErrPetNotFound)
	_, err = s.svc.AddMedicalEvent(s.ctx, "0xd", p.ID, assets.MedicalInput{Diagnosis: "x"})
	s.ErrorIs(err, dErrors.ErrValidation)

	// staff sin perfil
	s.Require().NoError(s.inst.AddStaff(s.ctx, "0xa", s.hospital.ID, "0x99"))
	_, err = s.svc.AddMedicalEvent(s.ctx, "0x99", p.ID, assets.MedicalInput{Diagnosis: "x", Treatment: "y"})
	s.ErrorIs(err, dErrors.ErrNotRegistered)

	found, err := s.svc.ListMedicalHistory(s.ctx, p.ID, assets.MedicalFilter{Query: "OTITIS"})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(e.ID, found[0].ID)

	limited, err := s.svc.ListMedicalHistory(s.ctx, p.ID, assets.MedicalFilter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(e.ID, limited[0].ID)

	_, err = s.svc.ListMedicalHistory(s.ctx, 77, assets.MedicalFilter{})
	s.ErrorIs(err, dErrors.ErrPetNotFound)
}

func (s *serviceSuite) TestRescueLifecycle() {
	_, err := s.svc.AddRescueRequest(s.ctx, "0xf", assets.RescueInput{Location: "Park", Description: "Stray", UrgencyLevel: 2})
	s.ErrorIs(err, dErrors.ErrNotRegistered)
	_, err = s.svc.AddRescueRequest(s.ctx, "0xc", assets.RescueInput{Location: "Park", Description: "Stray", UrgencyLevel: 4})
	s.ErrorIs(err, dErrors.ErrValidation)
	_, err = s.svc.AddRescueRequest(s.ctx, "0xc", assets.RescueInput{Description: "Stray", UrgencyLevel: 1})
	s.ErrorIs(err, dErrors.ErrValidation)

	r, err := s.svc.AddRescueRequest(s.ctx, "0xc", assets.RescueInput{
		Location: "Park", Description: "Stray dog", Images: []string{"cid-1"}, UrgencyLevel: 3,
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), r.ID)
	s.Equal(assets.RescuePending, r.Status)
	s.Zero(r.ResponderOrgID)

	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xc", r.ID, assets.RescueInProgress, 0)
	s.ErrorIs(err, dErrors.ErrUnauthorized)
	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xb", r.ID, assets.RescuePending, 0)
	s.ErrorIs(err, dErrors.ErrNoOpTransition)
	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xb", r.ID, assets.RescueInProgress, 99)
	s.ErrorIs(err, dErrors.ErrInstitutionNotFound)
	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xb", 5, assets.RescueInProgress, 0)
	s.ErrorIs(err, dErrors.ErrNotFound)
	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xb", r.ID, "lost", 0)
	s.ErrorIs(err, dErrors.ErrValidation)

	got, err := s.svc.UpdateRescueRequestStatus(s.ctx, "0xe", r.ID, assets.RescueInProgress, s.shelter.ID)
	s.Require().NoError(err)
	s.Equal(assets.RescueInProgress, got.Status)
	s.Equal(s.shelter.ID, got.ResponderOrgID)

	_, err = s.svc.UpdateRescueRequestStatus(s.ctx, "0xd", r.ID, assets.RescueInProgress, s.hospital.ID)
	s.ErrorIs(err, dErrors.ErrNoOpTransition)

	// sin orden forzado: el owner puede volver a pending
	got, err = s.svc.UpdateRescueRequestStatus(s.ctx, owner, r.ID, assets.RescuePending, 0)
	s.Require().NoError(err)
	s.Equal(assets.RescuePending, got.Status)

	read, err := s.svc.GetRescueRequest(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(assets.RescuePending, read.Status)
	s.Zero(read.ResponderOrgID)
	s.Equal([]string{"cid-1"}, read.Images)

	mine, err := s.svc.GetByRequester(s.ctx, "0xc")
	s.Require().NoError(err)
	s.Len(mine, 1)

	pending, err := s.svc.ListRescueRequestsByStatus(s.ctx, assets.RescuePending)
	s.Require().NoError(err)
	s.Len(pending, 1)
	inProgress, err := s.svc.ListRescueRequestsByStatus(s.ctx, assets.RescueInProgress)
	s.Require().NoError(err)
	s.Empty(inProgress)

	all, err := s.svc.ListAllRescueRequests(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *serviceSuite) TestRescueTransitionTable() {
	states := []assets.RescueStatus{assets.RescuePending, assets.RescueInProgress, assets.RescueCompleted, assets.RescueCancelled}
	for _, from := range states {
		for _, to := range states {
			s.Equal(from != to, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}
