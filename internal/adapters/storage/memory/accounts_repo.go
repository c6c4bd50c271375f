package memory

import (
	"context"

	"my-pet/internal/domain/accounts"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
)

type AccountsRepo struct {
	st  *Store
	seq sequence

	byID     *table[uint64, accounts.User]
	byWallet *table[identity.ID, uint64]
}

var _ accounts.Repository = (*AccountsRepo)(nil)

func NewAccountsRepo(st *Store) *AccountsRepo {
	return &AccountsRepo{
		st:       st,
		seq:      sequence{t: newTable[string, uint64](st, nil)},
		byID:     newTable[uint64](st, stripDerived),
		byWallet: newTable[identity.ID, uint64](st, nil),
	}
}

// stripDerived: rol y mascotas se calculan al leer.
func stripDerived(u accounts.User) accounts.User {
	u.Role = ""
	u.PetIDs = nil
	return u
}

func (r *AccountsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.seq.next(ctx, "users")
}

func (r *AccountsRepo) Create(ctx context.Context, u accounts.User) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		if _, exists := r.byWallet.get(ctx, u.Wallet); exists {
			return dErrors.Newf(dErrors.CodeInternal, "profile for %s already exists", u.Wallet)
		}
		if err := r.byID.put(ctx, u.ID, u); err != nil {
			return err
		}
		return r.byWallet.put(ctx, u.Wallet, u.ID)
	})
}

func (r *AccountsRepo) Update(ctx context.Context, u accounts.User) error {
	return r.st.Update(ctx, func(ctx context.Context) error {
		id, ok := r.byWallet.get(ctx, u.Wallet)
		if !ok || id != u.ID {
			return dErrors.ErrNotFound
		}
		return r.byID.put(ctx, u.ID, u)
	})
}

func (r *AccountsRepo) GetByWallet(ctx context.Context, wallet identity.ID) (accounts.User, error) {
	id, ok := r.byWallet.get(ctx, wallet)
	if !ok {
		return accounts.User{}, dErrors.ErrNotFound
	}
	u, ok := r.byID.get(ctx, id)
	if !ok {
		return accounts.User{}, dErrors.ErrNotFound
	}
	return u, nil
}

func (r *AccountsRepo) List(ctx context.Context) ([]accounts.User, error) {
	return r.byID.values(ctx), nil
}
