package memory

import (
	"context"
	"slices"
	"strings"

	"my-pet/internal/domain/assets"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
)

// NewAssetsRepos arma los cuatro repos de AssetRegistry sobre el mismo Store.
func NewAssetsRepos(st *Store) assets.Repositories {
	seq := sequence{t: newTable[string, uint64](st, nil)}
	return assets.Repositories{
		Pets:      newPetsRepo(st, seq),
		Medical:   newMedicalRepo(st, seq),
		Adoptions: newAdoptionsRepo(st, seq),
		Rescues:   newRescuesRepo(st, seq),
	}
}

// --- pets ---

type petsRepo struct {
	st  *Store
	seq sequence

	byID     *table[uint64, assets.Pet]
	byOwner  idList[identity.ID]
	byStatus idList[assets.AdoptionStatus]
}

func newPetsRepo(st *Store, seq sequence) *petsRepo {
	return &petsRepo{
		st:       st,
		seq:      seq,
		byID:     newTable[uint64](st, clonePet),
		byOwner:  newIDList[identity.ID](st),
		byStatus: newIDList[assets.AdoptionStatus](st),
	}
}

func clonePet(p assets.Pet) assets.Pet {
	p.Images = slices.Clone(p.Images)
	p.MedicalRecordIDs = slices.Clone(p.MedicalRecordIDs)
	if p.RemovedAt != nil {
		t := *p.RemovedAt
		p.RemovedAt = &t
	}
	return p
}

func (r *petsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "pets")
}

func (r *petsRepo) Create(ctx context.Context, p assets.Pet) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byID.get(ctx, p.ID); exists {
			return dErrors.Newf(dErrors.CodeInternal, "pet %d already exists", p.ID)
		}
		if err := r.byID.put(ctx, p.ID, p); err != nil {
			return err
		}
		return r.reindex(ctx, assets.Pet{}, p)
	})
}

func (r *petsRepo) Update(ctx context.Context, p assets.Pet) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		old, ok := r.byID.get(ctx, p.ID)
		if !ok {
			return dErrors.ErrNotFound
		}
		if err := r.byID.put(ctx, p.ID, p); err != nil {
			return err
		}
		return r.reindex(ctx, old, p)
	})
}

// reindex solo toca los índices cuyo valor cambió, así la mascota conserva su
// posición en la lista del dueño. old vacío (ID 0) = alta.
func (r *petsRepo) reindex(ctx context.Context, old, cur assets.Pet) error {
	wasListed := old.ID != 0 && !old.Removed()
	listed := !cur.Removed()

	if wasListed && (!listed || old.Owner != cur.Owner) {
		if err := r.byOwner.remove(ctx, old.Owner, old.ID); err != nil {
			return err
		}
	}
	if listed && (!wasListed || old.Owner != cur.Owner) {
		if err := r.byOwner.add(ctx, cur.Owner, cur.ID); err != nil {
			return err
		}
	}

	if wasListed && (!listed || old.AdoptionStatus != cur.AdoptionStatus) {
		if err := r.byStatus.remove(ctx, old.AdoptionStatus, old.ID); err != nil {
			return err
		}
	}
	if listed && (!wasListed || old.AdoptionStatus != cur.AdoptionStatus) {
		return r.byStatus.add(ctx, cur.AdoptionStatus, cur.ID)
	}
	return nil
}

func (r *petsRepo) GetByID(ctx context.Context, id uint64) (assets.Pet, error) {
	p, ok := r.byID.get(ctx, id)
	if !ok {
		return assets.Pet{}, dErrors.ErrNotFound
	}
	return p, nil
}

func (r *petsRepo) ListByOwner(ctx context.Context, owner identity.ID) ([]assets.Pet, error) {
	return r.load(ctx, r.byOwner.get(ctx, owner)), nil
}

func (r *petsRepo) ListByAdoptionStatus(ctx context.Context, status assets.AdoptionStatus) ([]assets.Pet, error) {
	ids := r.byStatus.get(ctx, status)
	slices.Sort(ids)
	return r.load(ctx, ids), nil
}

func (r *petsRepo) load(ctx context.Context, ids []uint64) []assets.Pet {
	out := make([]assets.Pet, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.byID.get(ctx, id); ok {
			out = append(out, p)
		}
	}
	return out
}

// --- medical events ---

type medicalRepo struct {
	st    *Store
	seq   sequence
	byID  *table[uint64, assets.MedicalEvent]
	byPet idList[uint64]
}

func newMedicalRepo(st *Store, seq sequence) *medicalRepo {
	return &medicalRepo{
		st:    st,
		seq:   seq,
		byID:  newTable[uint64, assets.MedicalEvent](st, nil),
		byPet: newIDList[uint64](st),
	}
}

func (r *medicalRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "medical_events")
}

func (r *medicalRepo) Append(ctx context.Context, e assets.MedicalEvent) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byID.get(ctx, e.ID); exists {
			return dErrors.Newf(dErrors.CodeInternal, "medical event %d already exists", e.ID)
		}
		if err := r.byID.put(ctx, e.ID, e); err != nil {
			return err
		}
		return r.byPet.add(ctx, e.PetID, e.ID)
	})
}

func (r *medicalRepo) ListByPet(ctx context.Context, petID uint64, f assets.MedicalFilter) ([]assets.MedicalEvent, error) {
	q := strings.ToLower(f.Query)

	out := make([]assets.MedicalEvent, 0)
	for _, id := range r.byPet.get(ctx, petID) {
		e, ok := r.byID.get(ctx, id)
		if !ok {
			continue
		}
		if f.From != nil && e.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Timestamp.After(*f.To) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Diagnosis), q) &&
			!strings.Contains(strings.ToLower(e.Treatment), q) {
			continue
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b assets.MedicalEvent) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- adoption events ---

type adoptionsRepo struct {
	st    *Store
	seq   sequence
	byID  *table[uint64, assets.AdoptionEvent]
	byPet idList[uint64]
}

func newAdoptionsRepo(st *Store, seq sequence) *adoptionsRepo {
	return &adoptionsRepo{
		st:    st,
		seq:   seq,
		byID:  newTable[uint64, assets.AdoptionEvent](st, nil),
		byPet: newIDList[uint64](st),
	}
}

func (r *adoptionsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "adoption_events")
}

func (r *adoptionsRepo) Append(ctx context.Context, e assets.AdoptionEvent) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byID.get(ctx, e.ID); exists {
			return dErrors.Newf(dErrors.CodeInternal, "adoption event %d already exists", e.ID)
		}
		if err := r.byID.put(ctx, e.ID, e); err != nil {
			return err
		}
		return r.byPet.add(ctx, e.PetID, e.ID)
	})
}

func (r *adoptionsRepo) ListByPet(ctx context.Context, petID uint64) ([]assets.AdoptionEvent, error) {
	out := make([]assets.AdoptionEvent, 0)
	for _, id := range r.byPet.get(ctx, petID) {
		if e, ok := r.byID.get(ctx, id); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- rescue requests ---

type rescuesRepo struct {
	st          *Store
	seq         sequence
	byID        *table[uint64, assets.RescueRequest]
	byRequester idList[identity.ID]
	byStatus    idList[assets.RescueStatus]
}

func newRescuesRepo(st *Store, seq sequence) *rescuesRepo {
	return &rescuesRepo{
		st:          st,
		seq:         seq,
		byID:        newTable[uint64](st, cloneRescue),
		byRequester: newIDList[identity.ID](st),
		byStatus:    newIDList[assets.RescueStatus](st),
	}
}

func cloneRescue(r assets.RescueRequest) assets.RescueRequest {
	r.Images = slices.Clone(r.Images)
	return r
}

func (r *rescuesRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "rescue_requests")
}

func (r *rescuesRepo) Create(ctx context.Context, rr assets.RescueRequest) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byID.get(ctx, rr.ID); exists {
			return dErrors.Newf(dErrors.CodeInternal, "rescue request %d already exists", rr.ID)
		}
		if err := r.byID.put(ctx, rr.ID, rr); err != nil {
			return err
		}
		if err := r.byRequester.add(ctx, rr.Requester, rr.ID); err != nil {
			return err
		}
		return r.byStatus.add(ctx, rr.Status, rr.ID)
	})
}

func (r *rescuesRepo) Update(ctx context.Context, rr assets.RescueRequest) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		old, ok := r.byID.get(ctx, rr.ID)
		if !ok {
			return dErrors.ErrNotFound
		}
		if err := r.byStatus.remove(ctx, old.Status, rr.ID); err != nil {
			return err
		}
		if err := r.byID.put(ctx, rr.ID, rr); err != nil {
			return err
		}
		return r.byStatus.add(ctx, rr.Status, rr.ID)
	})
}

func (r *rescuesRepo) GetByID(ctx context.Context, id uint64) (assets.RescueRequest, error) {
	rr, ok := r.byID.get(ctx, id)
	if !ok {
		return assets.RescueRequest{}, dErrors.ErrNotFound
	}
	return rr, nil
}

func (r *rescuesRepo) ListByRequester(ctx context.Context, requester identity.ID) ([]assets.RescueRequest, error) {
	return r.load(ctx, r.byRequester.get(ctx, requester)), nil
}

func (r *rescuesRepo) ListByStatus(ctx context.Context, status assets.RescueStatus) ([]assets.RescueRequest, error) {
	ids := r.byStatus.get(ctx, status)
	slices.Sort(ids)
	return r.load(ctx, ids), nil
}

func (r *rescuesRepo) List(ctx context.Context) ([]assets.RescueRequest, error) {
	return r.byID.values(ctx), nil
}

func (r *rescuesRepo) load(ctx context.Context, ids []uint64) []assets.RescueRequest {
	out := make([]assets.RescueRequest, 0, len(ids))
	for _, id := range ids {
		if rr, ok := r.byID.get(ctx, id); ok {
			out = append(out, rr)
		}
	}
	return out
}
