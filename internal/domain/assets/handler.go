package assets

import (
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
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", addPetHandler(svc))
		pr.Get("/", listPetsByStatusHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Put("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", removePetHandler(svc))
		pr.Put("/{petID}/adoption-status", setAdoptionStatusHandler(svc))

		// Historial (append-only)
		pr.Post("/{petID}/medical-events", addMedicalEventHandler(svc))
		pr.Get("/{petID}/medical-events", listMedicalEventsHandler(svc))
		pr.Post("/{petID}/adoptions", addAdoptionHandler(svc))
		pr.Get("/{petID}/adoptions", listAdoptionsHandler(svc))
	})
	r.Get("/owners/{identity}/pets", listPetsByOwnerHandler(svc))

	r.Route("/rescue-requests", func(rr chi.Router) {
		rr.Post("/", addRescueHandler(svc))
		rr.Get("/", listRescuesHandler(svc))
		rr.Get("/{rescueID}", getRescueHandler(svc))
		rr.Put("/{rescueID}/status", updateRescueStatusHandler(svc))
	})
	r.Get("/requesters/{identity}/rescue-requests", listRescuesByRequesterHandler(svc))
}

// petRequest es el cuerpo de alta y de actualización (reemplazo completo).
type petRequest struct {
	Name           string         `json:"name"`
	Species        string         `json:"species"`
	Breed          string         `json:"breed"`
	Gender         string         `json:"gender"`
	Age            uint32         `json:"age"`
	Description    string         `json:"description"`
	Images         []string       `json:"images"`
	HealthStatus   HealthStatus   `json:"health_status" enums:"Healthy,Sick,Recovering,Critical"`
	AdoptionStatus AdoptionStatus `json:"adoption_status" enums:"Available,Adopted,Processing,NotAvailable"`
}

func (req petRequest) input() PetInput {
	return PetInput{
		Name:           req.Name,
		Species:        req.Species,
		Breed:          req.Breed,
		Gender:         req.Gender,
		Age:            req.Age,
		Description:    req.Description,
		Images:         req.Images,
		HealthStatus:   req.HealthStatus,
		AdoptionStatus: req.AdoptionStatus,
	}
}

type adoptionStatusRequest struct {
	Status AdoptionStatus `json:"status" enums:"Available,Adopted,Processing,NotAvailable"`
}

type medicalEventRequest struct {
	Diagnosis     string `json:"diagnosis"`
	Treatment     string `json:"treatment"`
	Doctor        string `json:"doctor,omitempty"`
	Hospital      string `json:"hospital,omitempty"`
	InstitutionID uint64 `json:"institution_id,omitempty"`
}

type adoptionRequest struct {
	Adopter       string `json:"adopter"`
	Notes         string `json:"notes"`
	InstitutionID uint64 `json:"institution_id,omitempty"`
}

type petResponse struct {
	ID               uint64         `json:"id"`
	Owner            string         `json:"owner"`
	InstitutionID    uint64         `json:"institution_id,omitempty"`
	Name             string         `json:"name"`
	Species          string         `json:"species"`
	Breed            string         `json:"breed,omitempty"`
	Gender           string         `json:"gender,omitempty"`
	Age              uint32         `json:"age"`
	Description      string         `json:"description,omitempty"`
	Images           []string       `json:"images"`
	HealthStatus     HealthStatus   `json:"health_status"`
	AdoptionStatus   AdoptionStatus `json:"adoption_status"`
	MedicalRecordIDs []uint64       `json:"medical_record_ids"`
	CreatedAt        time.Time      `json:"created_at"`
	LastUpdatedAt    time.Time      `json:"last_updated_at"`
	RemovedAt        *time.Time     `json:"removed_at,omitempty"`
}

type medicalEventResponse struct {
	ID            uint64    `json:"id"`
	PetID         uint64    `json:"pet_id"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     string    `json:"treatment"`
	Hospital      string    `json:"hospital"`
	Doctor        string    `json:"doctor"`
	InstitutionID uint64    `json:"institution_id"`
	Timestamp     time.Time `json:"timestamp"`
}

type adoptionResponse struct {
	ID            uint64    `json:"id"`
	PetID         uint64    `json:"pet_id"`
	Adopter       string    `json:"adopter"`
	PreviousOwner string    `json:"previous_owner"`
	InstitutionID uint64    `json:"institution_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// addPetHandler godoc
// @Summary Registrar mascota
// @Description El caller (con perfil) queda como dueño. Si actúa por un refugio, la mascota queda administrada por él.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-Identity header string false "Solo en modo dev, identidad del caller"
// @Param payload body petRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Failure 401 {object} httputil.ErrorResponse "unauthenticated"
// @Failure 404 {object} httputil.ErrorResponse "not_registered"
// @Router /pets [post]
func addPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}

		var req petRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		p, err := svc.AddPet(r.Context(), caller, req.input())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsByStatusHandler godoc
// @Summary Mascotas por estado de adopción
// @Tags pets
// @Produce json
// @Param adoption_status query string true "Available | Adopted | Processing | NotAvailable"
// @Success 200 {array} petResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Router /pets [get]
func listPetsByStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := AdoptionStatus(strings.TrimSpace(r.URL.Query().Get("adoption_status")))

		items, err := svc.GetByAdoptionStatus(r.Context(), status)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		writePets(w, items)
	}
}

// listPetsByOwnerHandler godoc
// @Summary Mascotas de un dueño
// @Tags pets
// @Produce json
// @Param identity path string true "Identidad 0x..."
// @Success 200 {array} petResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Router /owners/{identity}/pets [get]
func listPetsByOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.Parse(chi.URLParam(r, "identity"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		items, err := svc.GetByOwner(r.Context(), owner)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		writePets(w, items)
	}
}

// getPetHandler godoc
// @Summary Detalle de mascota
// @Description Incluye mascotas dadas de baja (removed_at).
// @Tags pets
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		p, err := svc.GetPet(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Description Solo el dueño. Reemplaza todos los campos mutables.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param payload body petRequest true "Datos completos"
// @Success 200 {object} petResponse
// @Failure 403 {object} httputil.ErrorResponse "not_owner"
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found"
// @Router /pets/{petID} [put]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		var req petRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		p, err := svc.UpdatePet(r.Context(), caller, id, req.input())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// removePetHandler godoc
// @Summary Dar de baja mascota
// @Description Solo el dueño. El historial se conserva.
// @Tags pets
// @Param petID path int true "ID de la mascota"
// @Success 204
// @Failure 403 {object} httputil.ErrorResponse "not_owner"
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found"
// @Router /pets/{petID} [delete]
func removePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := svc.RemovePet(r.Context(), caller, id); err != nil {
			httputil.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setAdoptionStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		var req adoptionStatusRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		p, err := svc.SetAdoptionStatus(r.Context(), caller, id, req.Status)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// addMedicalEventHandler godoc
// @Summary Agregar evento médico
// @Description Solo personal de un hospital. doctor/hospital/institution_id son opcionales.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param payload body medicalEventRequest true "Evento"
// @Success 201 {object} medicalEventResponse
// @Failure 403 {object} httputil.ErrorResponse "unauthorized"
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found | not_registered"
// @Router /pets/{petID}/medical-events [post]
func addMedicalEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		var req medicalEventRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		doctor, err := optionalIdentity(req.Doctor)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		hospital, err := optionalIdentity(req.Hospital)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		e, err := svc.AddMedicalEvent(r.Context(), caller, id, MedicalInput{
			Diagnosis:     req.Diagnosis,
			Treatment:     req.Treatment,
			Doctor:        doctor,
			Hospital:      hospital,
			InstitutionID: req.InstitutionID,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toMedicalEventResponse(e))
	}
}

// listMedicalEventsHandler godoc
// @Summary Historial médico
// @Tags pets
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param limit query int false "Máximo de eventos (1-200). Por defecto 50"
// @Param from query string false "Timestamp mínimo (RFC3339)"
// @Param to query string false "Timestamp máximo (RFC3339)"
// @Param q query string false "Texto en diagnóstico/tratamiento"
// @Success 200 {array} medicalEventResponse
// @Failure 400 {object} httputil.ErrorResponse "validation_error"
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found"
// @Router /pets/{petID}/medical-events [get]
func listMedicalEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter, err := parseMedicalFilter(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		items, err := svc.ListMedicalHistory(r.Context(), id, filter)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out := make([]medicalEventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toMedicalEventResponse(e))
		}
		httputil.WriteJSON(w, http.StatusOK, out)
	}
}

// addAdoptionHandler godoc
// @Summary Registrar adopción
// @Description El dueño o el refugio que administra la mascota. Transfiere la mascota al adoptante.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path int true "ID de la mascota"
// @Param payload body adoptionRequest true "Adopción"
// @Success 201 {object} adoptionResponse
// @Failure 403 {object} httputil.ErrorResponse "not_owner | unauthorized"
// @Failure 404 {object} httputil.ErrorResponse "pet_not_found | institution_not_found"
// @Router /pets/{petID}/adoptions [post]
func addAdoptionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.Caller(r.Context())
		if !ok {
			httputil.Unauthenticated(w)
			return
		}
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		var req adoptionRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		adopter, err := identity.Parse(req.Adopter)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		e, err := svc.AddAdoptionEvent(r.Context(), caller, id, AdoptionInput{
			Adopter:       adopter,
			Notes:         req.Notes,
			InstitutionID: req.InstitutionID,
		})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toAdoptionResponse(e))
	}
}

func listAdoptionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "petID")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		items, err := svc.ListAdoptionHistory(r.Context(), id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out := make([]adoptionResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toAdoptionResponse(e))
		}
		httputil.WriteJSON(w, http.StatusOK, out)
	}
}

func parseMedicalFilter(r *http.Request) (MedicalFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := MedicalFilter{Limit: limit}

	// from/to RFC3339
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return MedicalFilter{}, dErrors.New(dErrors.CodeValidation, "from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return MedicalFilter{}, dErrors.New(dErrors.CodeValidation, "to must be RFC3339")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(r.URL.Query().Get("q"))
	return filter, nil
}

func idParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s %q must be a positive integer", name, raw)
	}
	return id, nil
}

// optionalIdentity: vacío = usar el valor por defecto del servicio.
func optionalIdentity(raw string) (identity.ID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return identity.Parse(raw)
}

func writePets(w http.ResponseWriter, items []Pet) {
	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPetResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func toPetResponse(p Pet) petResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	records := p.MedicalRecordIDs
	if records == nil {
		records = []uint64{}
	}
	return petResponse{
		ID:               p.ID,
		Owner:            p.Owner.String(),
		InstitutionID:    p.InstitutionID,
		Name:             p.Name,
		Species:          p.Species,
		Breed:            p.Breed,
		Gender:           p.Gender,
		Age:              p.Age,
		Description:      p.Description,
		Images:           images,
		HealthStatus:     p.HealthStatus,
		AdoptionStatus:   p.AdoptionStatus,
		MedicalRecordIDs: records,
		CreatedAt:        p.CreatedAt,
		LastUpdatedAt:    p.LastUpdatedAt,
		RemovedAt:        p.RemovedAt,
	}
}

func toMedicalEventResponse(e MedicalEvent) medicalEventResponse {
	return medicalEventResponse{
		ID:            e.ID,
		PetID:         e.PetID,
		Diagnosis:     e.Diagnosis,
		Treatment:     e.Treatment,
		Hospital:      e.Hospital.String(),
		Doctor:        e.Doctor.String(),
		InstitutionID: e.InstitutionID,
		Timestamp:     e.Timestamp,
	}
}

func toAdoptionResponse(e AdoptionEvent) adoptionResponse {
	return adoptionResponse{
		ID:            e.ID,
		PetID:         e.PetID,
		Adopter:       e.Adopter.String(),
		PreviousOwner: e.PreviousOwner.String(),
		InstitutionID: e.InstitutionID,
		Notes:         e.Notes,
		Timestamp:     e.Timestamp,
	}
}
