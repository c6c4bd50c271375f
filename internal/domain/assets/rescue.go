package assets

import (
	"context"
	"errors"
	"strings"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/platform/oplog"
)

type RescueInput struct {
	Location     string
	Description  string
	Images       []string
	UrgencyLevel uint8
}

// AddRescueRequest: cualquier identidad registrada. Nace en pending, sin
// institución asignada.
func (s *Service) AddRescueRequest(ctx context.Context, caller identity.ID, in RescueInput) (RescueRequest, error) {
	var out RescueRequest
	err := s.rec.Mutate(ctx, "add_rescue_request", func(ctx context.Context) error {
		if err := s.requireRegistered(ctx, caller); err != nil {
			return err
		}

		in.Location = strings.TrimSpace(in.Location)
		in.Description = strings.TrimSpace(in.Description)
		if in.Location == "" {
			return dErrors.New(dErrors.CodeValidation, "location is required")
		}
		if in.Description == "" {
			return dErrors.New(dErrors.CodeValidation, "description is required")
		}
		if in.UrgencyLevel < MinUrgency || in.UrgencyLevel > MaxUrgency {
			return dErrors.Newf(dErrors.CodeValidation, "urgency level must be %d-%d, got %d", MinUrgency, MaxUrgency, in.UrgencyLevel)
		}
		images, err := normalizeImages(in.Images)
		if err != nil {
			return err
		}

		id, err := s.rescues.NextID(ctx)
		if err != nil {
			return oplog.Internal(err, "next rescue request id")
		}
		now := s.now().UTC()
		r := RescueRequest{
			ID:           id,
			Requester:    caller,
			Location:     in.Location,
			Description:  in.Description,
			Images:       images,
			UrgencyLevel: in.UrgencyLevel,
			Status:       RescuePending,
			Timestamp:    now,
			UpdatedAt:    now,
		}
		if err := s.rescues.Create(ctx, r); err != nil {
			return oplog.Internal(err, "create rescue request")
		}
		out = r
		return nil
	})
	if err != nil {
		return RescueRequest{}, err
	}
	return out, nil
}

// UpdateRescueRequestStatus: Admin, Hospital o Shelter. El nuevo estado debe
// ser distinto del actual; ResponderOrgID se fija en la misma escritura.
func (s *Service) UpdateRescueRequestStatus(ctx context.Context, caller identity.ID, id uint64, status RescueStatus, responderOrgID uint64) (RescueRequest, error) {
	var out RescueRequest
	err := s.rec.Mutate(ctx, "update_rescue_status", func(ctx context.Context) error {
		if _, err := s.authz.Authorize(ctx, caller, access.ActionUpdateRescueStatus); err != nil {
			if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
				return err
			}
			return oplog.Internal(err, "resolve role")
		}
		if !status.Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "invalid rescue status %q", status)
		}

		r, err := s.rescue(ctx, id)
		if err != nil {
			return err
		}
		if responderOrgID != 0 {
			if _, err := s.institution(ctx, responderOrgID); err != nil {
				return err
			}
		}
		if r.Status == status {
			return dErrors.Newf(dErrors.CodeNoOpTransition, "rescue request %d is already %s", id, status)
		}
		if !r.Status.CanTransitionTo(status) {
			return dErrors.Newf(dErrors.CodeValidation, "cannot move rescue request from %s to %s", r.Status, status)
		}

		r.Status = status
		r.ResponderOrgID = responderOrgID
		r.UpdatedAt = s.now().UTC()
		if err := s.rescues.Update(ctx, r); err != nil {
			return oplog.Internal(err, "update rescue request")
		}
		out = r
		return nil
	})
	if err != nil {
		return RescueRequest{}, err
	}
	return out, nil
}

func (s *Service) GetRescueRequest(ctx context.Context, id uint64) (RescueRequest, error) {
	var out RescueRequest
	err := s.rec.View(ctx, func(ctx context.Context) error {
		r, err := s.rescue(ctx, id)
		out = r
		return err
	})
	return out, err
}

func (s *Service) GetByRequester(ctx context.Context, requester identity.ID) ([]RescueRequest, error) {
	var out []RescueRequest
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.rescues.ListByRequester(ctx, requester)
		out = items
		return oplog.Internal(err, "list rescue requests by requester")
	})
	return out, err
}

func (s *Service) ListAllRescueRequests(ctx context.Context) ([]RescueRequest, error) {
	var out []RescueRequest
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.rescues.List(ctx)
		out = items
		return oplog.Internal(err, "list rescue requests")
	})
	return out, err
}

func (s *Service) ListRescueRequestsByStatus(ctx context.Context, status RescueStatus) ([]RescueRequest, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid rescue status %q", status)
	}
	var out []RescueRequest
	err := s.rec.View(ctx, func(ctx context.Context) error {
		items, err := s.rescues.ListByStatus(ctx, status)
		out = items
		return oplog.Internal(err, "list rescue requests by status")
	})
	return out, err
}

func (s *Service) rescue(ctx context.Context, id uint64) (RescueRequest, error) {
	r, err := s.rescues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, dErrors.ErrNotFound) {
			return RescueRequest{}, dErrors.Newf(dErrors.CodeNotFound, "rescue request %d does not exist", id)
		}
		return RescueRequest{}, oplog.Internal(err, "load rescue request")
	}
	return r, nil
}
