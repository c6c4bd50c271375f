package assets

import (
	"net/http"
	"strings"
	"time"

	"my-pet/internal/domain/identity"
	"my-pet/internal/middleware"
	"my-pet/internal/platform/httputil"

	"github.com/go-chi/chi/v5"
)

type rescueRequest struct {
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	Images       []string `json:"images"`
	UrgencyLevel uint8    `json:"urgency_level" minimum:"1" maximum:"3"`
}

type rescueStatusRequest struct {
	Status         RescueStatus `json:"status" enums:"pending,in_progress,completed,cancelled"`
	ResponderOrgID uint64       `json:"responder_org_id"`
}

type rescueResponse struct {
	ID             uint64       `json:"id"`
	Requester      string       `json:"requester"`
	Location       string       `json:"location"`
	Description    string       `json:"description"`
	Images         []string     `json:"images"`
	UrgencyLevel   uint8        `json:"urgency_level"`
	Status         RescueStatus `json:"status"`
	ResponderOrgID uint64       `json:"responder_org_id"`
	Timestamp      time.Time    `json:"timestamp"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// addRescueHandler godoc
// @Summary Crear solicitud de rescate
// @Description Cualquier identidad con perfil. Nace en pending.
// @Tags rescue
// @Accept json
// @Produce json
// @Param X-Debug-Identity header string false "Solo en modo dev, identidad del caller"
// @Param payload body rescueRequest true "Solicitud"
// @Success 201 {object} rescueResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Failure 404 {object} httputil.ErrorResponse "not_registered"
// @Router /rescue-requests [post]
func addRescueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		var req rescueRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		rr, err := svc.AddRescueRequest(r.Context(), caller, RescueInput{
			Location:     req.Location,
			Description:  req.Description,
			Images:       req.Images,
			UrgencyLevel: req.UrgencyLevel,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toRescueResponse(rr))
	}
}

// listRescuesHandler godoc
// @Summary Listar solicitudes de rescate
// @Tags rescue
// @Produce json
// @Param status query string false "pending | in_progress | completed | cancelled"
// @Success 200 {array} rescueResponse
// @Router /rescue-requests [get]
func listRescuesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			items []RescueRequest
			err   error
		)
		if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
			items, err = svc.ListRescueRequestsByStatus(r.Context(), RescueStatus(status))
		} else {
			items, err = svc.ListAllRescueRequests(r.Context())
		}
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		writeRescues(w, items)
	}
}

// listRescuesByRequesterHandler godoc
// @Summary Solicitudes de rescate de un solicitante
// @Tags rescue
// @Produce json
// @Param identity path string true "Identidad 0x..."
// @Success 200 {array} rescueResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Router /requesters/{identity}/rescue-requests [get]
func listRescuesByRequesterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		items, err := svc.GetByRequester(r.Context(), requester)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		writeRescues(w, items)
	}
}

func getRescueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "rescueID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		rr, err := svc.GetRescueRequest(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRescueResponse(rr))
	}
}

// updateRescueStatusHandler godoc
// @Summary Cambiar estado de un rescate
// @Description Admin, Hospital o Shelter. El estado nuevo debe ser distinto del actual.
// @Tags rescue
// @Accept json
// @Produce json
// @Param rescueID path int true "ID de la solicitud"
// @Param payload body rescueStatusRequest true "Nuevo estado"
// @Success 200 {object} rescueResponse
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Failure 404 {object} httputil.ErrorResponse "not_found | institution_not_found"
// @Failure 409 {object} httputil.ErrorResponse "noop_transition"
// @Router /rescue-requests/{rescueID}/status [put]
func updateRescueStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "rescueID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		var req rescueStatusRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		rr, err := svc.UpdateRescueRequestStatus(r.Context(), caller, id, req.Status, req.ResponderOrgID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRescueResponse(rr))
	}
}

func writeRescues(w http.ResponseWriter, items []RescueRequest) {
	out := make([]rescueResponse, 0, len(items))
	for _, rr := range items {
		out = append(out, toRescueResponse(rr))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func toRescueResponse(rr RescueRequest) rescueResponse {
	images := rr.Images
	if images == nil {
		images = []string{}
	}
	return rescueResponse{
		ID:             rr.ID,
		Requester:      rr.Requester.String(),
		Location:       rr.Location,
		Description:    rr.Description,
		Images:         images,
		UrgencyLevel:   rr.UrgencyLevel,
		Status:         rr.Status,
		ResponderOrgID: rr.ResponderOrgID,
		Timestamp:      rr.Timestamp,
		UpdatedAt:      rr.UpdatedAt,
	}
}
