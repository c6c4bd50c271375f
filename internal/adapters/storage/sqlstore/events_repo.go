package sqlstore

import (
	"context"
	"strings"

	"my-pet/internal/domain/assets"
)

type MedicalRepo struct {
	db *DB
}

var _ assets.MedicalRepository = (*MedicalRepo)(nil)

func (r *MedicalRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "medical_events")
}

func (r *MedicalRepo) Append(ctx context.Context, e assets.MedicalEvent) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO medical_events (
			id, pet_id, diagnosis, treatment,
			hospital, doctor, institution_id, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		i64(e.ID),
		i64(e.PetID),
		e.Diagnosis,
		e.Treatment,
		e.Hospital.String(),
		e.Doctor.String(),
		i64(e.InstitutionID),
		toNanos(e.Timestamp),
	)
	return err
}

func (r *MedicalRepo) ListByPet(ctx context.Context, petID uint64, f assets.MedicalFilter) ([]assets.MedicalEvent, error) {
	var (
		where = []string{"pet_id = ?"}
		args  = []any{i64(petID)}
	)
	if f.From != nil {
		where = append(where, "ts >= ?")
		args = append(args, f.From.UnixNano())
	}
	if f.To != nil {
		where = append(where, "ts <= ?")
		args = append(args, f.To.UnixNano())
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(LOWER(diagnosis) LIKE ? OR LOWER(treatment) LIKE ?)")
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}

	query := `
		SELECT id, pet_id, diagnosis, treatment, hospital, doctor, institution_id, ts
		FROM medical_events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]assets.MedicalEvent, 0)
	for rows.Next() {
		var (
			e  assets.MedicalEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.PetID, &e.Diagnosis, &e.Treatment, &e.Hospital, &e.Doctor, &e.InstitutionID, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

type AdoptionsRepo struct {
	db *DB
}

var _ assets.AdoptionRepository = (*AdoptionsRepo)(nil)

func (r *AdoptionsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "adoption_events")
}

func (r *AdoptionsRepo) Append(ctx context.Context, e assets.AdoptionEvent) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO adoption_events (
			id, pet_id, adopter, previous_owner, institution_id, notes, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		i64(e.ID),
		i64(e.PetID),
		e.Adopter.String(),
		e.PreviousOwner.String(),
		i64(e.InstitutionID),
		e.Notes,
		toNanos(e.Timestamp),
	)
	return err
}

func (r *AdoptionsRepo) ListByPet(ctx context.Context, petID uint64) ([]assets.AdoptionEvent, error) {
	rows, err := r.db.query(ctx, `
		SELECT id, pet_id, adopter, previous_owner, institution_id, notes, ts
		FROM adoption_events
		WHERE pet_id = ?
		ORDER BY id ASC
	`, i64(petID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]assets.AdoptionEvent, 0)
	for rows.Next() {
		var (
			e  assets.AdoptionEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.PetID, &e.Adopter, &e.PreviousOwner, &e.InstitutionID, &e.Notes, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
