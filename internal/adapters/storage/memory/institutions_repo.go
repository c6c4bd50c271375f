package memory

import (
	"context"
	"slices"

	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	dErrors "my-pet/internal/domainerrors"
)

type InstitutionsRepo struct {
	st  *Store
	seq sequence

	byID          *table[uint64, institutions.Institution]
	byResponsible *table[identity.ID, uint64]
	byStaff       idList[identity.ID]
}

var _ institutions.Repository = (*InstitutionsRepo)(nil)

func NewInstitutionsRepo(st *Store) *InstitutionsRepo {
	return &InstitutionsRepo{
		st:            st,
		seq:           sequence{t: newTable[string, uint64](st, nil)},
		byID:          newTable[uint64](st, cloneInstitution),
		byResponsible: newTable[identity.ID, uint64](st, nil),
		byStaff:       newIDList[identity.ID](st),
	}
}

func cloneInstitution(i institutions.Institution) institutions.Institution {
	i.Staff = slices.Clone(i.Staff)
	return i
}

func (r *InstitutionsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "institutions")
}

func (r *InstitutionsRepo) Create(ctx context.Context, inst institutions.Institution) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byID.get(ctx, inst.ID); exists {
			return dErrors.Newf(dErrors.CodeInternal, "institution %d already exists", inst.ID)
		}
		if err := r.byID.put(ctx, inst.ID, inst); err != nil {
			return err
		}
		for _, m := range inst.Staff {
			if err := r.byStaff.add(ctx, m, inst.ID); err != nil {
				return err
			}
		}
		return r.byResponsible.put(ctx, inst.ResponsiblePerson, inst.ID)
	})
}

func (r *InstitutionsRepo) AddStaff(ctx context.Context, institutionID uint64, member identity.ID) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		inst, ok := r.byID.get(ctx, institutionID)
		if !ok {
			return dErrors.ErrNotFound
		}
		if inst.HasStaff(member) {
			return nil
		}
		inst.Staff = append(inst.Staff, member)
		if err := r.byID.put(ctx, inst.ID, inst); err != nil {
			return err
		}
		return r.byStaff.add(ctx, member, inst.ID)
	})
}

func (r *InstitutionsRepo) RemoveStaff(ctx context.Context, institutionID uint64, member identity.ID) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		inst, ok := r.byID.get(ctx, institutionID)
		if !ok {
			return dErrors.ErrNotFound
		}
		i := slices.Index(inst.Staff, member)
		if i < 0 {
			return nil
		}
		inst.Staff = slices.Delete(inst.Staff, i, i+1)
		if err := r.byID.put(ctx, inst.ID, inst); err != nil {
			return err
		}
		return r.byStaff.remove(ctx, member, inst.ID)
	})
}

func (r *InstitutionsRepo) GetByID(ctx context.Context, id uint64) (institutions.Institution, error) {
	inst, ok := r.byID.get(ctx, id)
	if !ok {
		return institutions.Institution{}, dErrors.ErrNotFound
	}
	return inst, nil
}

func (r *InstitutionsRepo) GetByResponsible(ctx context.Context, responsible identity.ID) (institutions.Institution, error) {
	id, ok := r.byResponsible.get(ctx, responsible)
	if !ok {
		return institutions.Institution{}, dErrors.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InstitutionsRepo) ListByStaff(ctx context.Context, member identity.ID) ([]institutions.Institution, error) {
	ids := r.byStaff.get(ctx, member)
	slices.Sort(ids)

	out := make([]institutions.Institution, 0, len(ids))
	for _, id := range ids {
		inst, ok := r.byID.get(ctx, id)
		if !ok {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}

func (r *InstitutionsRepo) List(ctx context.Context, filter institutions.ListFilter) ([]institutions.Institution, error) {
	out := make([]institutions.Institution, 0)
	for _, inst := range r.byID.values(ctx) {
		if filter.Kind != "" && inst.Kind != filter.Kind {
			continue
		}
		out = append(out, inst)
	}
	return out, nil
}
