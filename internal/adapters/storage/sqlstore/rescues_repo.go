package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"my-pet/internal/domain/assets"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
)

type RescuesRepo struct {
	db *DB
}

var _ assets.RescueRepository = (*RescuesRepo)(nil)

func (r *RescuesRepo) NextID(ctx context.Context) (uint64, error) {
	return r.db.nextID(ctx, "rescue_requests")
}

func (r *RescuesRepo) Create(ctx context.Context, rr assets.RescueRequest) error {
	images, err := encodeList(rr.Images)
	if err != nil {
		return err
	}
	_, err = r.db.exec(ctx, `
		INSERT INTO rescue_requests (
			id, requester, location, description, images, urgency_level,
			status, responder_org_id, ts, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		i64(rr.ID),
		rr.Requester.String(),
		rr.Location,
		rr.Description,
		images,
		int64(rr.UrgencyLevel),
		string(rr.Status),
		i64(rr.ResponderOrgID),
		toNanos(rr.Timestamp),
		toNanos(rr.UpdatedAt),
	)
	return err
}

// Update solo escribe lo que puede cambiar tras el alta.
func (r *RescuesRepo) Update(ctx context.Context, rr assets.RescueRequest) error {
	res, err := r.db.exec(ctx, `
		UPDATE rescue_requests
		SET status = ?, responder_org_id = ?, updated_at = ?
		WHERE id = ?
	`, string(rr.Status), i64(rr.ResponderOrgID), toNanos(rr.UpdatedAt), i64(rr.ID))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return dErrors.ErrNotFound
	}
	return nil
}

const rescueColumns = `id, requester, location, description, images, urgency_level,
	status, responder_org_id, ts, updated_at`

func (r *RescuesRepo) GetByID(ctx context.Context, id uint64) (assets.RescueRequest, error) {
	row := r.db.queryRow(ctx, `SELECT `+rescueColumns+` FROM rescue_requests WHERE id = ?`, i64(id))
	rr, err := scanRescue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return assets.RescueRequest{}, dErrors.ErrNotFound
	}
	return rr, err
}

func (r *RescuesRepo) ListByRequester(ctx context.Context, requester identity.ID) ([]assets.RescueRequest, error) {
	return r.list(ctx, `SELECT `+rescueColumns+` FROM rescue_requests WHERE requester = ? ORDER BY id ASC`, requester.String())
}

func (r *RescuesRepo) ListByStatus(ctx context.Context, status assets.RescueStatus) ([]assets.RescueRequest, error) {
	return r.list(ctx, `SELECT `+rescueColumns+` FROM rescue_requests WHERE status = ? ORDER BY id ASC`, string(status))
}

func (r *RescuesRepo) List(ctx context.Context) ([]assets.RescueRequest, error) {
	return r.list(ctx, `SELECT `+rescueColumns+` FROM rescue_requests ORDER BY id ASC`)
}

func (r *RescuesRepo) list(ctx context.Context, query string, args ...any) ([]assets.RescueRequest, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]assets.RescueRequest, 0)
	for rows.Next() {
		rr, err := scanRescue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func scanRescue(s scanner) (assets.RescueRequest, error) {
	var (
		rr          assets.RescueRequest
		images      string
		ts, updated int64
	)
	if err := s.Scan(
		&rr.ID,
		&rr.Requester,
		&rr.Location,
		&rr.Description,
		&images,
		&rr.UrgencyLevel,
		&rr.Status,
		&rr.ResponderOrgID,
		&ts,
		&updated,
	); err != nil {
		return assets.RescueRequest{}, err
	}

	list, err := decodeList(images)
	if err != nil {
		return assets.RescueRequest{}, err
	}
	rr.Images = list
	rr.Timestamp = fromNanos(ts)
	rr.UpdatedAt = fromNanos(updated)
	return rr, nil
}
