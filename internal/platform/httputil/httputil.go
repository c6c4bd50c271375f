package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "my-pet/internal/domainerrors"
)

const maxBodyBytes = 1 << 20

// ErrorResponse es el cuerpo de todos los errores de la API.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduce el Code del error a status HTTP. Los errores internos
// no exponen descripción.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = dErrors.Message(err)
	}
	WriteJSON(w, StatusFor(code), resp)
}

// Unauthenticated: no hay principal en el request.
func Unauthenticated(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:            "unauthenticated",
		ErrorDescription: "caller identity required",
	})
}

func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized, dErrors.CodeNotOwner:
		return http.StatusForbidden
	case dErrors.CodeNotFound, dErrors.CodePetNotFound, dErrors.CodeInstitutionNotFound, dErrors.CodeNotRegistered:
		return http.StatusNotFound
	case dErrors.CodeDuplicateResponsiblePerson, dErrors.CodeNoOpTransition:
		return http.StatusConflict
	case dErrors.CodeValidation, dErrors.CodeInvalidAffiliation, dErrors.CodeOrgRequired, dErrors.CodeOrgNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodifica el body estricto (sin campos desconocidos).
// Cualquier fallo se reporta como validation_error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeValidation, "request body required")
		}
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid json")
	}
	return nil
}
