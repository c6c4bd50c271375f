package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"my-pet/internal/domain/accounts"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
)

type AccountsRepo struct {
	db *DB
}

var _ accounts.Repository = (*AccountsRepo)(nil)

func NewAccountsRepo(db *DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

func (r *AccountsRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "users")
}

func (r *AccountsRepo) Create(ctx context.Context, u accounts.User) error {
	_, err := r.db.exec(ctx, `
		INSERT INTO users (
			id, wallet, name, email, phone,
			user_type, org_id, registered_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		i64(u.ID),
		u.Wallet.String(),
		u.Name,
		u.Email,
		u.Phone,
		string(u.UserType),
		i64(u.OrgID),
		toNanos(u.RegisteredAt),
		toNanos(u.UpdatedAt),
	)
	return err
}

// Update nunca toca id, wallet ni registered_at.
func (r *AccountsRepo) Update(ctx context.Context, u accounts.User) error {
	res, err := r.db.exec(ctx, `
		UPDATE users
		SET
			name = ?,
			email = ?,
			phone = ?,
			user_type = ?,
			org_id = ?,
			updated_at = ?
		WHERE id = ? AND wallet = ?
	`,
		u.Name,
		u.Email,
		u.Phone,
		string(u.UserType),
		i64(u.OrgID),
		toNanos(u.UpdatedAt),
		i64(u.ID),
		u.Wallet.String(),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return dErrors.ErrNotFound
	}
	return nil
}

const userColumns = `id, wallet, name, email, phone, user_type, org_id, registered_at, updated_at`

func (r *AccountsRepo) GetByWallet(ctx context.Context, wallet identity.ID) (accounts.User, error) {
	row := r.db.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = ?`, wallet.String())
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return accounts.User{}, dErrors.ErrNotFound
	}
	return u, err
}

func (r *AccountsRepo) List(ctx context.Context) ([]accounts.User, error) {
	rows, err := r.db.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accounts.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (accounts.User, error) {
	var (
		u                   accounts.User
		registered, updated int64
	)
	if err := s.Scan(
		&u.ID,
		&u.Wallet,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.UserType,
		&u.OrgID,
		&registered,
		&updated,
	); err != nil {
		return accounts.User{}, err
	}
	u.RegisteredAt = fromNanos(registered)
	u.UpdatedAt = fromNanos(updated)
	return u, nil
}
