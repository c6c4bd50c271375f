package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"my-pet/internal/domain/assets"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
)

// NewAssetsRepos arma los repos de AssetRegistry sobre la misma base.
func NewAssetsRepos(db *DB) assets.Repositories {
	return assets.Repositories{
		Pets:      &PetsRepo{db: db},
		Medical:   &MedicalRepo{db: db},
		Adoptions: &AdoptionsRepo{db: db},
		Rescues:   &RescuesRepo{db: db},
	}
}

// PetsRepo guarda MedicalRecordIDs de forma implícita: se leen de
// medical_events.
type PetsRepo struct {
	db *DB
}

var _ assets.PetRepository = (*PetsRepo)(nil)

func (r *PetsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "pets")
}

func (r *PetsRepo) Create(ctx context.Context, p assets.Pet) error {
	images, err := encodeList(p.Images)
	if err != nil {
		return err
	}
	return r.db.Update(ctx, func(ctx context.Context) error {
		if _, err := r.db.exec(ctx, `
			INSERT INTO pets (
				id, owner, institution_id,
				name, species, breed, gender, age, description, images,
				health_status, adoption_status,
				created_at, last_updated_at, removed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			i64(p.ID),
			p.Owner.String(),
			i64(p.InstitutionID),
			p.Name,
			p.Species,
			p.Breed,
			p.Gender,
			int64(p.Age),
			p.Description,
			images,
			string(p.HealthStatus),
			string(p.AdoptionStatus),
			toNanos(p.CreatedAt),
			toNanos(p.LastUpdatedAt),
			removedNanos(p),
		); err != nil {
			return err
		}
		if p.Removed() {
			return nil
		}
		return r.appendToOwner(ctx, p.Owner, p.ID)
	})
}

func (r *PetsRepo) Update(ctx context.Context, p assets.Pet) error {
	images, err := encodeList(p.Images)
	if err != nil {
		return err
	}
	return r.db.Update(ctx, func(ctx context.Context) error {
		var (
			oldOwner   identity.ID
			oldRemoved int64
		)
		err := r.db.queryRow(ctx, `SELECT owner, removed_at FROM pets WHERE id = ?`, i64(p.ID)).Scan(&oldOwner, &oldRemoved)
		if errors.Is(err, sql.ErrNoRows) {
			return dErrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := r.db.exec(ctx, `
			UPDATE pets
			SET
				owner = ?,
				institution_id = ?,
				name = ?,
				species = ?,
				breed = ?,
				gender = ?,
				age = ?,
				description = ?,
				images = ?,
				health_status = ?,
				adoption_status = ?,
				last_updated_at = ?,
				removed_at = ?
			WHERE id = ?
		`,
			p.Owner.String(),
			i64(p.InstitutionID),
			p.Name,
			p.Species,
			p.Breed,
			p.Gender,
			int64(p.Age),
			p.Description,
			images,
			string(p.HealthStatus),
			string(p.AdoptionStatus),
			toNanos(p.LastUpdatedAt),
			removedNanos(p),
			i64(p.ID),
		); err != nil {
			return err
		}

		// la posición en la lista del dueño solo cambia si cambia el dueño
		wasListed, listed := oldRemoved == 0, !p.Removed()
		if wasListed && (!listed || oldOwner != p.Owner) {
			if _, err := r.db.exec(ctx, `DELETE FROM owner_pets WHERE pet_id = ?`, i64(p.ID)); err != nil {
				return err
			}
		}
		if listed && (!wasListed || oldOwner != p.Owner) {
			return r.appendToOwner(ctx, p.Owner, p.ID)
		}
		return nil
	})
}

func (r *PetsRepo) appendToOwner(ctx context.Context, owner identity.ID, petID uint64) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO owner_pets (owner, pet_id, position)
		SELECT CAST(? AS TEXT), CAST(? AS BIGINT), COALESCE(MAX(position), 0) + 1
		FROM owner_pets WHERE owner = ?
	`, owner.String(), i64(petID), owner.String())
	return err
}

func removedNanos(p assets.Pet) int64 {
	if p.RemovedAt == nil {
		return 0
	}
	return p.RemovedAt.UnixNano()
}

const petColumns = `p.id, p.owner, p.institution_id, p.name, p.species, p.breed, p.gender, p.age,
	p.description, p.images, p.health_status, p.adoption_status,
	p.created_at, p.last_updated_at, p.removed_at`

func (r *PetsRepo) GetByID(ctx context.Context, id uint64) (assets.Pet, error) {
	items, err := r.list(ctx, `SELECT `+petColumns+` FROM pets p WHERE p.id = ?`, i64(id))
	if err != nil {
		return assets.Pet{}, err
	}
	if len(items) == 0 {
		return assets.Pet{}, dErrors.ErrNotFound
	}
	return items[0], nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, owner identity.ID) ([]assets.Pet, error) {
	return r.list(ctx, `
		SELECT `+petColumns+`
		FROM owner_pets o
		JOIN pets p ON p.id = o.pet_id
		WHERE o.owner = ?
		ORDER BY o.position ASC
	`, owner.String())
}

func (r *PetsRepo) ListByAdoptionStatus(ctx context.Context, status assets.AdoptionStatus) ([]assets.Pet, error) {
	return r.list(ctx, `
		SELECT `+petColumns+`
		FROM pets p
		WHERE p.adoption_status = ? AND p.removed_at = 0
		ORDER BY p.id ASC
	`, string(status))
}

func (r *PetsRepo) list(ctx context.Context, query string, args ...any) ([]assets.Pet, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]assets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		ids, err := r.medicalIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MedicalRecordIDs = ids
	}
	return out, nil
}

func (r *PetsRepo) medicalIDs(ctx context.Context, petID uint64) ([]uint64, error) {
	rows, err := r.db.query(ctx, `SELECT id FROM medical_events WHERE pet_id = ? ORDER BY id ASC`, i64(petID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanPet(s scanner) (assets.Pet, error) {
	var (
		p                         assets.Pet
		images                    string
		created, updated, removed int64
	)
	if err := s.Scan(
		&p.ID,
		&p.Owner,
		&p.InstitutionID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Gender,
		&p.Age,
		&p.Description,
		&images,
		&p.HealthStatus,
		&p.AdoptionStatus,
		&created,
		&updated,
		&removed,
	); err != nil {
		return assets.Pet{}, err
	}

	list, err := decodeList(images)
	if err != nil {
		return assets.Pet{}, err
	}
	p.Images = list
	p.CreatedAt = fromNanos(created)
	p.LastUpdatedAt = fromNanos(updated)
	if removed != 0 {
		t := fromNanos(removed)
		p.RemovedAt = &t
	}
	return p, nil
}
