package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
)

type InstitutionsRepo struct {
	db *DB
}

var _ institutions.Repository = (*InstitutionsRepo)(nil)

func NewInstitutionsRepo(db *DB) *InstitutionsRepo {
	return &InstitutionsRepo{db: db}
}

func (r *InstitutionsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "institutions")
}

func (r *InstitutionsRepo) Create(ctx context.Context, inst institutions.Institution) error {
	return r.db.Update(ctx, func(ctx context.Context) error {
		if _, err := r.db.exec(ctx, `
			INSERT INTO institutions (id, name, kind, responsible_person, created_at)
			VALUES (?, ?, ?, ?, ?)
		`,
			i64(inst.ID),
			inst.Name,
			string(inst.Kind),
			inst.ResponsiblePerson.String(),
			toNanos(inst.CreatedAt),
		); err != nil {
			return err
		}
		for _, m := range inst.Staff {
			if err := r.AddStaff(ctx, inst.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InstitutionsRepo) AddStaff(ctx context.Context, institutionID uint64, member identity.ID) error {
	return r.db.Update(ctx, func(ctx context.Context) error {
		if err := r.exists(ctx, institutionID); err != nil {
			return err
		}
		// ON CONFLICT lo entienden Postgres y SQLite; los CAST fijan el tipo de
		// los parámetros en Postgres.
		_, err := r.db.exec(ctx, `
			INSERT INTO institution_staff (institution_id, identity, position)
			SELECT CAST(? AS BIGINT), CAST(? AS TEXT), COALESCE(MAX(position), 0) + 1
			FROM institution_staff WHERE institution_id = ?
			ON CONFLICT (institution_id, identity) DO NOTHING
		`, i64(institutionID), member.String(), i64(institutionID))
		return err
	})
}

func (r *InstitutionsRepo) RemoveStaff(ctx context.Context, institutionID uint64, member identity.ID) error {
	return r.db.Update(ctx, func(ctx context.Context) error {
		if err := r.exists(ctx, institutionID); err != nil {
			return err
		}
		_, err := r.db.exec(ctx, `
			DELETE FROM institution_staff WHERE institution_id = ? AND identity = ?
		`, i64(institutionID), member.String())
		return err
	})
}

func (r *InstitutionsRepo) exists(ctx context.Context, id uint64) error {
	var one int
	err := r.db.queryRow(ctx, `SELECT 1 FROM institutions WHERE id = ?`, i64(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return dErrors.ErrNotFound
	}
	return err
}

const institutionColumns = `id, name, kind, responsible_person, created_at`

func (r *InstitutionsRepo) GetByID(ctx context.Context, id uint64) (institutions.Institution, error) {
	items, err := r.list(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE id = ?`, i64(id))
	if err != nil {
		return institutions.Institution{}, err
	}
	if len(items) == 0 {
		return institutions.Institution{}, dErrors.ErrNotFound
	}
	return items[0], nil
}

func (r *InstitutionsRepo) GetByResponsible(ctx context.Context, responsible identity.ID) (institutions.Institution, error) {
	items, err := r.list(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE responsible_person = ?`, responsible.String())
	if err != nil {
		return institutions.Institution{}, err
	}
	if len(items) == 0 {
		return institutions.Institution{}, dErrors.ErrNotFound
	}
	return items[0], nil
}

func (r *InstitutionsRepo) ListByStaff(ctx context.Context, member identity.ID) ([]institutions.Institution, error) {
	return r.list(ctx, `
		SELECT i.id, i.name, i.kind, i.responsible_person, i.created_at
		FROM institutions i
		JOIN institution_staff s ON s.institution_id = i.id
		WHERE s.identity = ?
		ORDER BY i.id ASC
	`, member.String())
}

func (r *InstitutionsRepo) List(ctx context.Context, filter institutions.ListFilter) ([]institutions.Institution, error) {
	if filter.Kind != "" {
		return r.list(ctx, `SELECT `+institutionColumns+` FROM institutions WHERE kind = ? ORDER BY id ASC`, string(filter.Kind))
	}
	return r.list(ctx, `SELECT `+institutionColumns+` FROM institutions ORDER BY id ASC`)
}

// list lee las filas completas antes de cargar la plantilla (con SQLite hay
// una sola conexión y no se pueden anidar cursores).
func (r *InstitutionsRepo) list(ctx context.Context, query string, args ...any) ([]institutions.Institution, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]institutions.Institution, 0)
	for rows.Next() {
		var (
			inst    institutions.Institution
			created int64
		)
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Kind, &inst.ResponsiblePerson, &created); err != nil {
			_ = rows.Close()
			return nil, err
		}
		inst.CreatedAt = fromNanos(created)
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		staff, err := r.staffOf(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Staff = staff
	}
	return out, nil
}

func (r *InstitutionsRepo) staffOf(ctx context.Context, id uint64) ([]identity.ID, error) {
	rows, err := r.db.query(ctx, `
		SELECT identity FROM institution_staff WHERE institution_id = ? ORDER BY position ASC
	`, i64(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]identity.ID, 0)
	for rows.Next() {
		var m identity.ID
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
