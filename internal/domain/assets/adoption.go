package assets

import (
	"context"
	"strings"

	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/oplog"
)

type AdoptionInput struct {
	Adopter identity.ID
	Notes   string
	// InstitutionID opcional; si el caller no es el dueño debe coincidir con
	// el refugio que administra la mascota.
	InstitutionID uint64
}

// AddAdoptionEvent registra la adopción y transfiere la mascota al adoptante
// en la misma transacción.
func (s *Service) AddAdoptionEvent(ctx context.Context, caller identity.ID, petID uint64, in AdoptionInput) (AdoptionEvent, error) {
	var out AdoptionEvent
	err := s.rec.Mutate(ctx, "add_adoption_event", func(ctx context.Context) error {
		p, err := s.activePet(ctx, petID)
		if err != nil {
			return err
		}
		if err := s.authorizeShelterAction(ctx, caller, p); err != nil {
			return err
		}
		isOwner := caller == p.Owner

		institutionID := p.InstitutionID
		if in.InstitutionID != 0 {
			if _, err := s.institution(ctx, in.InstitutionID); err != nil {
				return err
			}
			if !isOwner && in.InstitutionID != p.InstitutionID {
				return dErrors.Newf(dErrors.CodeUnauthorized,
					"institution %d does not administer pet %d", in.InstitutionID, p.ID)
			}
			institutionID = in.InstitutionID
		}

		if err := identity.Validate(in.Adopter); err != nil {
			return err
		}
		if in.Adopter == p.Owner {
			return dErrors.Newf(dErrors.CodeValidation, "%s already owns pet %d", in.Adopter, p.ID)
		}

		id, err := s.adoptions.NextID(ctx)
		if err != nil {
			return oplog.Internal(err, "next adoption event id")
		}
		now := s.now().UTC()
		e := AdoptionEvent{
			ID:            id,
			PetID:         p.ID,
			Adopter:       in.Adopter,
			PreviousOwner: p.Owner,
			InstitutionID: institutionID,
			Notes:         strings.TrimSpace(in.Notes),
			Timestamp:     now,
		}
		if err := s.adoptions.Append(ctx, e); err != nil {
			return oplog.Internal(err, "append adoption event")
		}

		p.Owner = in.Adopter
		p.AdoptionStatus = AdoptionAdopted
		p.InstitutionID = 0
		p.LastUpdatedAt = now
		if err := s.pets.Update(ctx, p); err != nil {
			return oplog.Internal(err, "transfer pet")
		}
		out = e
		return nil
	})
	if err != nil {
		return AdoptionEvent{}, err
	}
	return out, nil
}

func (s *Service) ListAdoptionHistory(ctx context.Context, petID uint64) ([]AdoptionEvent, error) {
	var out []AdoptionEvent
	err := s.rec.View(ctx, func(ctx context.Context) error {
		if _, err := s.pet(ctx, petID); err != nil {
			return err
		}
		items, err := s.adoptions.ListByPet(ctx, petID)
		out = items
		return oplog.Internal(err, "list adoption events")
	})
	return out, err
}
