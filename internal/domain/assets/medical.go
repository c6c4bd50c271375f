package assets

import (
	"context"
	"strings"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/oplog"
)

// MedicalInput: Doctor, Hospital e InstitutionID son opcionales; por defecto
// salen del caller y del hospital por el que actúa.
type MedicalInput struct {
	Diagnosis string
	Treatment string

	Doctor        identity.ID
	Hospital      identity.ID
	InstitutionID uint64
}

// AddMedicalEvent agrega un evento al historial de la mascota. Solo personal
// de un hospital (responsable o staff) con perfil registrado.
func (s *Service) AddMedicalEvent(ctx context.Context, caller identity.ID, petID uint64, in MedicalInput) (MedicalEvent, error) {
	var out MedicalEvent
	err := s.rec.Mutate(ctx, "add_medical_event", func(ctx context.Context) error {
		if err := s.requireRegistered(ctx, caller); err != nil {
			return err
		}
		hospital, err := s.actingHospital(ctx, caller, in.InstitutionID)
		if err != nil {
			return err
		}

		p, err := s.activePet(ctx, petID)
		if err != nil {
			return err
		}

		in.Diagnosis = strings.TrimSpace(in.Diagnosis)
		in.Treatment = strings.TrimSpace(in.Treatment)
		if in.Diagnosis == "" {
			return dErrors.New(dErrors.CodeValidation, "diagnosis is required")
		}
		if in.Treatment == "" {
			return dErrors.New(dErrors.CodeValidation, "treatment is required")
		}

		doctor := in.Doctor
		if doctor.IsZero() {
			doctor = caller
		}
		if err := identity.Validate(doctor); err != nil {
			return err
		}
		hospitalID := in.Hospital
		if hospitalID.IsZero() {
			hospitalID = hospital.ResponsiblePerson
		}
		if err := identity.Validate(hospitalID); err != nil {
			return err
		}

		id, err := s.medical.NextID(ctx)
		if err != nil {
			return oplog.Internal(err, "next medical event id")
		}
		now := s.now().UTC()
		e := MedicalEvent{
			ID:            id,
			PetID:         p.ID,
			Diagnosis:     in.Diagnosis,
			Treatment:     in.Treatment,
			Hospital:      hospitalID,
			Doctor:        doctor,
			InstitutionID: hospital.ID,
			Timestamp:     now,
		}
		if err := s.medical.Append(ctx, e); err != nil {
			return oplog.Internal(err, "append medical event")
		}

		p.MedicalRecordIDs = append(p.MedicalRecordIDs, e.ID)
		p.LastUpdatedAt = now
		if err := s.pets.Update(ctx, p); err != nil {
			return oplog.Internal(err, "attach medical event")
		}
		out = e
		return nil
	})
	if err != nil {
		return MedicalEvent{}, err
	}
	return out, nil
}

// actingHospital resuelve el hospital del caller. Con requested != 0 el caller
// tiene que ser miembro de ese hospital en concreto.
func (s *Service) actingHospital(ctx context.Context, caller identity.ID, requested uint64) (institutions.Institution, error) {
	if requested == 0 {
		inst, ok, err := s.authz.ActingInstitution(ctx, caller, institutions.KindHospital)
		if err != nil {
			return institutions.Institution{}, oplog.Internal(err, "resolve hospital")
		}
		if !ok {
			return institutions.Institution{}, dErrors.Newf(dErrors.CodeUnauthorized,
				"%s cannot %s: not hospital staff", caller, access.ActionAppendMedical)
		}
		return inst, nil
	}

	inst, err := s.institution(ctx, requested)
	if err != nil {
		return institutions.Institution{}, err
	}
	if inst.Kind != institutions.KindHospital || !inst.IsMember(caller) {
		return institutions.Institution{}, dErrors.Newf(dErrors.CodeUnauthorized,
			"%s is not staff of hospital %d", caller, requested)
	}
	return inst, nil
}

// ListMedicalHistory incluye los eventos de mascotas removidas.
func (s *Service) ListMedicalHistory(ctx context.Context, petID uint64, filter MedicalFilter) ([]MedicalEvent, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, dErrors.New(dErrors.CodeValidation, "to must not be before from")
	}
	if filter.Limit < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	}
	filter.Query = strings.TrimSpace(filter.Query)

	var out []MedicalEvent
	err := s.rec.View(ctx, func(ctx context.Context) error {
		if _, err := s.pet(ctx, petID); err != nil {
			return err
		}
		items, err := s.medical.ListByPet(ctx, petID, filter)
		out = items
		return oplog.Internal(err, "list medical events")
	})
	return out, err
}
