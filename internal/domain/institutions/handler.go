package institutions

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/middleware"
	"my-pet/internal/platform/httputil"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/institutions", func(ir chi.Router) {
		ir.Post("/", addInstitutionHandler(svc))
		ir.Get("/", listInstitutionsHandler(svc))
		ir.Get("/{institutionID}", getInstitutionHandler(svc))

		// Plantilla (solo el responsable muta)
		ir.Put("/{institutionID}/staff/{identity}", addStaffHandler(svc))
		ir.Delete("/{institutionID}/staff/{identity}", removeStaffHandler(svc))
		ir.Get("/{institutionID}/staff/{identity}", isStaffHandler(svc))
	})

	r.Get("/identities/{identity}/institution", institutionOfHandler(svc))
}

// addInstitutionRequest es el cuerpo para dar de alta una institución.
type addInstitutionRequest struct {
	Name              string `json:"name"`
	Kind              Kind   `json:"kind" enums:"Hospital,Shelter"`
	ResponsiblePerson string `json:"responsible_person"`
}

// institutionResponse representa una institución devuelta por la API.
type institutionResponse struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Kind              Kind      `json:"kind"`
	ResponsiblePerson string    `json:"responsible_person"`
	Staff             []string  `json:"staff"`
	CreatedAt         time.Time `json:"created_at"`
}

type isStaffResponse struct {
	InstitutionID uint64 `json:"institution_id"`
	Identity      string `json:"identity"`
	IsStaff       bool   `json:"is_staff"`
}

type institutionOfResponse struct {
	Identity      string `json:"identity"`
	InstitutionID uint64 `json:"institution_id"`
	Found         bool   `json:"found"`
}

// addInstitutionHandler godoc
// @Summary Crear institución
// @Description Solo el registry owner puede crear instituciones. Un mismo responsable no puede encabezar dos.
// @Tags institutions
// @Accept json
// @Produce json
// @Param X-Debug-Identity header string false "Solo en modo dev, identidad del caller"
// @Param payload body addInstitutionRequest true "Datos de la institución"
// @Success 201 {object} institutionResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Failure 401 {object} httputil.ErrorResponse "unauthenticated"
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Failure 409 {object} httputil.ErrorResponse "duplicate_responsible_person"
// @Router /institutions [post]
func addInstitutionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		var req addInstitutionRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		rp, err := identity.Parse(req.ResponsiblePerson)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		inst, err := svc.AddInstitution(r.Context(), caller, AddInput{
			Name:              req.Name,
			Kind:              req.Kind,
			ResponsiblePerson: rp,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, toInstitutionResponse(inst))
	}
}

// listInstitutionsHandler godoc
// @Summary Listar instituciones
// @Tags institutions
// @Produce json
// @Param kind query string false "Hospital | Shelter"
// @Success 200 {array} institutionResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Router /institutions [get]
func listInstitutionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Kind: Kind(strings.TrimSpace(r.URL.Query().Get("kind")))}

		items, err := svc.ListAll(r.Context(), filter)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		out := make([]institutionResponse, 0, len(items))
		for _, inst := range items {
			out = append(out, toInstitutionResponse(inst))
		}
		httputil.WriteJSON(w, http.StatusOK, out)
	}
}

// getInstitutionHandler godoc
// @Summary Detalle de institución
// @Tags institutions
// @Produce json
// @Param institutionID path int true "ID de la institución"
// @Success 200 {object} institutionResponse
// @Failure 404 {object} httputil.ErrorResponse "institution_not_found"
// @Router /institutions/{institutionID} [get]
func getInstitutionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := institutionIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		inst, err := svc.GetDetail(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
	}
}

// addStaffHandler godoc
// @Summary Agregar staff
// @Description Solo el responsable de la institución. Idempotente.
// @Tags institutions
// @Produce json
// @Param institutionID path int true "ID de la institución"
// @Param identity path string true "Identidad 0x..."
// @Success 200 {object} institutionResponse
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Failure 404 {object} httputil.ErrorResponse "institution_not_found"
// @Router /institutions/{institutionID}/staff/{identity} [put]
func addStaffHandler(svc *Service) http.HandlerFunc {
	return staffMutationHandler(svc, svc.AddStaff)
}

// removeStaffHandler godoc
// @Summary Quitar staff
// @Description Solo el responsable de la institución. Idempotente.
// @Tags institutions
// @Produce json
// @Param institutionID path int true "ID de la institución"
// @Param identity path string true "Identidad 0x..."
// @Success 200 {object} institutionResponse
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Failure 404 {object} httputil.ErrorResponse "institution_not_found"
// @Router /institutions/{institutionID}/staff/{identity} [delete]
func removeStaffHandler(svc *Service) http.HandlerFunc {
	return staffMutationHandler(svc, svc.RemoveStaff)
}

type staffMutation func(ctx context.Context, caller identity.ID, institutionID uint64, member identity.ID) error

func staffMutationHandler(svc *Service, mutate staffMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		id, err := institutionIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		member, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := mutate(r.Context(), caller, id, member); err != nil {
			httputil.WriteError(w, err)
			return
		}

		inst, err := svc.GetDetail(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
	}
}

func isStaffHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := institutionIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		member, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		ok, err := svc.IsStaff(r.Context(), id, member)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, isStaffResponse{InstitutionID: id, Identity: member.String(), IsStaff: ok})
	}
}

// institutionOfHandler godoc
// @Summary Institución de una identidad
// @Description Primero la que encabeza; si no, la de menor id donde es staff.
// @Tags institutions
// @Produce json
// @Param identity path string true "Identidad 0x..."
// @Success 200 {object} institutionOfResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Router /identities/{identity}/institution [get]
func institutionOfHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		id, found, err := svc.InstitutionOf(r.Context(), member)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, institutionOfResponse{Identity: member.String(), InstitutionID: id, Found: found})
	}
}

func institutionIDParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "institutionID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "institution id %q must be a positive integer", raw)
	}
	return id, nil
}

func toInstitutionResponse(inst Institution) institutionResponse {
	staff := make([]string, 0, len(inst.Staff))
	for _, s := range inst.Staff {
		staff = append(staff, s.String())
	}
	return institutionResponse{
		ID:                inst.ID,
		Name:              inst.Name,
		Kind:              inst.Kind,
		ResponsiblePerson: inst.ResponsiblePerson.String(),
		Staff:             staff,
		CreatedAt:         inst.CreatedAt,
	}
}
