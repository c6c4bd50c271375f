package assets

import (
	"context"
	"errors"
	"strings"

	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/oplog"
)

type PetInput struct {
	Name           string
	Species        string
	Breed          string
	Gender         string
	Age            uint32
	Description    string
	Images         []string
	HealthStatus   HealthStatus
	AdoptionStatus AdoptionStatus
}

func (in *PetInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Species = strings.TrimSpace(in.Species)
	in.Breed = strings.TrimSpace(in.Breed)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if in.Species == "" {
		return dErrors.New(dErrors.CodeValidation, "species is required")
	}
	if in.HealthStatus == "" {
		in.HealthStatus = HealthHealthy
	}
	if !in.HealthStatus.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid health status %q", in.HealthStatus)
	}
	if in.AdoptionStatus == "" {
		in.AdoptionStatus = AdoptionNotAvailable
	}
	if !in.AdoptionStatus.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid adoption status %q", in.AdoptionStatus)
	}

	images, err := normalizeImages(in.Images)
	if err != nil {
		return err
	}
	in.Images = images
	return nil
}

// normalizeImages: las referencias son opacas, solo se rechazan vacías.
func normalizeImages(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i, ref := range raw {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, dErrors.Newf(dErrors.CodeValidation, "image %d is empty", i)
		}
		out = append(out, ref)
	}
	return out, nil
}

// AddPet: el caller (registrado) queda como dueño. Si actúa por un refugio,
// la mascota queda administrada por ese refugio.
func (s *Service) AddPet(ctx context.Context, caller identity.ID, in PetInput) (Pet, error) {
	var out Pet
	err := s.rec.Mutate(ctx, "add_pet", func(ctx context.Context) error {
		if err := s.requireRegistered(ctx, caller); err != nil {
			return err
		}
		if err := in.normalize(); err != nil {
			return err
		}

		var institutionID uint64
		shelter, ok, err := s.authz.ActingInstitution(ctx, caller, institutions.KindShelter)
		if err != nil {
			return oplog.Internal(err, "resolve shelter")
		}
		if ok {
			institutionID = shelter.ID
		}

		id, err := s.pets.NextID(ctx)
		if err != nil {
			return oplog.Internal(err, "next pet id")
		}

		now := s.now().UTC()
		p := Pet{
			ID:               id,
			Owner:            caller,
			InstitutionID:    institutionID,
			MedicalRecordIDs: []uint64{},
			CreatedAt:        now,
			LastUpdatedAt:    now,
		}
		in.applyTo(&p)

		if err := s.pets.Create(ctx, p); err != nil {
			return oplog.Internal(err, "create pet")
		}
		out = p
		return nil
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

func (in PetInput) applyTo(p *Pet) {
	p.Name = in.Name
	p.Species = in.Species
	p.Breed = in.Breed
	p.Gender = in.Gender
	p.Age = in.Age
	p.Description = in.Description
	p.Images = in.Images
	p.HealthStatus = in.HealthStatus
	p.AdoptionStatus = in.AdoptionStatus
}

// UpdatePet sobreescribe todos los campos mutables. Solo el dueño.
func (s *Service) UpdatePet(ctx context.Context, caller identity.ID, petID uint64, in PetInput) (Pet, error) {
	var out Pet
	err := s.rec.Mutate(ctx, "update_pet", func(ctx context.Context) error {
		p, err := s.ownedPet(ctx, caller, petID)
		if err != nil {
			return err
		}
		if err := in.normalize(); err != nil {
			return err
		}

		in.applyTo(&p)
		p.LastUpdatedAt = s.now().UTC()
		if err := s.pets.Update(ctx, p); err != nil {
			return oplog.Internal(err, "update pet")
		}
		out = p
		return nil
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

// RemovePet saca la mascota de la lista del dueño; el registro y sus eventos
// quedan para el historial.
func (s *Service) RemovePet(ctx context.Context, caller identity.ID, petID uint64) error {
	return s.rec.Mutate(ctx, "remove_pet", func(ctx context.Context) error {
		p, err := s.ownedPet(ctx, caller, petID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		p.RemovedAt = &now
		p.LastUpdatedAt = now
		return oplog.Internal(s.pets.Update(ctx, p), "remove pet")
	})
}

// SetAdoptionStatus cambia el estado de adopción sin transferir la mascota.
// Puede hacerlo el dueño o un miembro del refugio que la administra.
func (s *Service) SetAdoptionStatus(ctx context.Context, caller identity.ID, petID uint64, status AdoptionStatus) (Pet, error) {
	var out Pet
	err := s.rec.Mutate(ctx, "set_adoption_status", func(ctx context.Context) error {
		if !status.Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "invalid adoption status %q", status)
		}
		p, err := s.activePet(ctx, petID)
		if err != nil {
			return err
		}
		if err := s.authorizeShelterAction(ctx, caller, p); err != nil {
			return err
		}

		p.AdoptionStatus = status
		p.LastUpdatedAt = s.now().UTC()
		if err := s.pets.Update(ctx, p); err != nil {
			return oplog.Internal(err, "update adoption status")
		}
		out = p
		return nil
	})
	if err != nil {
		return Pet{}, err
	}
	return out, nil
}

// authorizeShelterAction: dueño, o miembro del refugio que administra la mascota.
func (s *Service) authorizeShelterAction(ctx context.Context, caller identity.ID, p Pet) error {
	if !caller.IsZero() && caller == p.Owner {
		return nil
	}
	ok, err := s.memberOf(ctx, p.InstitutionID, caller)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeNotOwner, "%s does not own or administer pet %d", caller, p.ID)
	}
	return nil
}

// GetPet devuelve también mascotas removidas (RemovedAt != nil).
func (s *Service) GetPet(ctx context.Context, petID uint64) (Pet, error) {
	var out Pet
	err := s.rec.View(ctx, func(ctx context.Context) error {
		p, err := s.pet(ctx, petID)
		out = p
		return err
	})
	return out, err
}

func (s *Service) GetByOwner(ctx context.Context, owner identity.ID) ([]Pet, error) {
	var out []Pet
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.pets.ListByOwner(ctx, owner)
		out = items
		return oplog.Internal(err, "list pets by owner")
	})
	return out, err
}

func (s *Service) GetByAdoptionStatus(ctx context.Context, status AdoptionStatus) ([]Pet, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid adoption status %q", status)
	}
	var out []Pet
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.pets.ListByAdoptionStatus(ctx, status)
		out = items
		return oplog.Internal(err, "list pets by adoption status")
	})
	return out, err
}

// PetIDsOf es el índice que consume AccountRegistry para User.PetIDs.
func (s *Service) PetIDsOf(ctx context.Context, owner identity.ID) ([]uint64, error) {
	items, err := s.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *Service) pet(ctx context.Context, petID uint64) (Pet, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, dErrors.ErrNotFound) {
			return Pet{}, dErrors.Newf(dErrors.CodePetNotFound, "pet %d does not exist", petID)
		}
		return Pet{}, oplog.Internal(err, "load pet")
	}
	return p, nil
}

// activePet: una mascota removida no admite más mutaciones.
func (s *Service) activePet(ctx context.Context, petID uint64) (Pet, error) {
	p, err := s.pet(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.Removed() {
		return Pet{}, dErrors.Newf(dErrors.CodePetNotFound, "pet %d was removed", petID)
	}
	return p, nil
}

func (s *Service) ownedPet(ctx context.Context, caller identity.ID, petID uint64) (Pet, error) {
	p, err := s.activePet(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if caller.IsZero() || caller != p.Owner {
		return Pet{}, dErrors.Newf(dErrors.CodeNotOwner, "%s does not own pet %d", caller, petID)
	}
	return p, nil
}
