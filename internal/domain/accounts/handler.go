package accounts

import (
	"net/http"
	"time"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
	dErrors "my-pet/internal/domainerrors"
	"my-pet/internal/middleware"
	"my-pet/internal/platform/httputil"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/me", func(mr chi.Router) {
		mr.Put("/profile", setProfileHandler(svc))
		mr.Get("/profile", getMyProfileHandler(svc))
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/{identity}", getUserHandler(svc))
		ur.Get("/{identity}/registered", isRegisteredHandler(svc))
		ur.Get("/{identity}/role", roleHandler(svc))
	})
}

// setProfileRequest es el cuerpo de PUT /me/profile. La identidad sale del
// request autenticado, nunca del payload.
type setProfileRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	UserType UserType `json:"user_type" enums:"Personal,Institutional"`
	OrgID    uint64   `json:"org_id"`
}

type userResponse struct {
	ID           uint64      `json:"id"`
	Wallet       string      `json:"wallet"`
	Name         string      `json:"name"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	UserType     UserType    `json:"user_type"`
	OrgID        uint64      `json:"org_id"`
	Role         access.Role `json:"role"`
	PetIDs       []uint64    `json:"pet_ids"`
	RegisteredAt time.Time   `json:"registered_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type registeredResponse struct {
	Identity   string `json:"identity"`
	Registered bool   `json:"registered"`
}

type roleResponse struct {
	Identity string      `json:"identity"`
	Role     access.Role `json:"role"`
}

// setProfileHandler godoc
// @Summary Crear o actualizar mi perfil
// @Description Upsert por identidad del caller. Personal exige org_id=0; Institutional exige una institución existente.
// @Tags accounts
// @Accept json
// @Produce json
// @Param X-Debug-Identity header string false "Solo en modo dev, identidad del caller"
// @Param payload body setProfileRequest true "Perfil"
// @Success 200 {object} userResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error | invalid_affiliation | org_required | org_not_found"
// @Failure 401 {object} httputil.ErrorResponse "unauthenticated"
// @Router /me/profile [put]
func setProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		var req setProfileRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		u, err := svc.SetProfile(r.Context(), caller, ProfileInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			UserType: req.UserType,
			OrgID:    req.OrgID,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func getMyProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		u, err := svc.GetInfo(r.Context(), caller)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Description Solo Admin (registry owner).
// @Tags accounts
// @Produce json
// @Success 200 {array} userResponse
// @Failure 401 {object} httputil.ErrorResponse "unauthenticated"
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		role, err := svc.RoleOf(r.Context(), caller)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if !access.Allows(role, access.ActionListUsers) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "only the registry owner can list users"))
			return
		}

		items, err := svc.ListAll(r.Context())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		httputil.WriteJSON(w, http.StatusOK, out)
	}
}

// getUserHandler godoc
// @Summary Perfil de una identidad
// @Tags accounts
// @Produce json
// @Param identity path string true "Identidad 0x..."
// @Success 200 {object} userResponse
// @Failure 404 {object} httputil.ErrorResponse "not_registered"
// @Router /users/{identity} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		u, err := svc.GetInfo(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func isRegisteredHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, registeredResponse{
			Identity:   id.String(),
			Registered: svc.IsRegistered(r.Context(), id),
		})
	}
}

func roleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		role, err := svc.RoleOf(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, roleResponse{Identity: id.String(), Role: role})
	}
}

func toUserResponse(u User) userResponse {
	pets := u.PetIDs
	if pets == nil {
		pets = []uint64{}
	}
	return userResponse{
		ID:           u.ID,
		Wallet:       u.Wallet.String(),
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		UserType:     u.UserType,
		OrgID:        u.OrgID,
		Role:         u.Role,
		PetIDs:       pets,
		RegisteredAt: u.RegisteredAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
