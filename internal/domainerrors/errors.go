package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifica el tipo de fallo que devuelve un registro.
type Code string

const (
	CodeUnauthorized               Code = "unauthorized"
	CodeDuplicateResponsiblePerson Code = "duplicate_responsible_person"
	CodeNotFound                   Code = "not_found"
	CodePetNotFound                Code = "pet_not_found"
	CodeInstitutionNotFound        Code = "institution_not_found"
	CodeNotRegistered              Code = "not_registered"
	CodeInvalidAffiliation         Code = "invalid_affiliation"
	CodeOrgRequired                Code = "org_required"
	CodeOrgNotFound                Code = "org_not_found"
	CodeNotOwner                   Code = "not_owner"
	CodeNoOpTransition             Code = "noop_transition"
	CodeValidation                 Code = "validation_error"
	CodeInternal                   Code = "internal_error"
)

// Error es el error tipado de dominio. Dos errores son "iguales" para
// errors.Is si comparten Code, así los sentinels de abajo sirven en tests.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Code)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	// PetNotFound / InstitutionNotFound también son NotFound.
	return t.Code == CodeNotFound && (e.Code == CodePetNotFound || e.Code == CodeInstitutionNotFound)
}

var (
	ErrUnauthorized               = &Error{Code: CodeUnauthorized}
	ErrDuplicateResponsiblePerson = &Error{Code: CodeDuplicateResponsiblePerson}
	ErrNotFound                   = &Error{Code: CodeNotFound}
	ErrPetNotFound                = &Error{Code: CodePetNotFound}
	ErrInstitutionNotFound        = &Error{Code: CodeInstitutionNotFound}
	ErrNotRegistered              = &Error{Code: CodeNotRegistered}
	ErrInvalidAffiliation         = &Error{Code: CodeInvalidAffiliation}
	ErrOrgRequired                = &Error{Code: CodeOrgRequired}
	ErrOrgNotFound                = &Error{Code: CodeOrgNotFound}
	ErrNotOwner                   = &Error{Code: CodeNotOwner}
	ErrNoOpTransition             = &Error{Code: CodeNoOpTransition}
	ErrValidation                 = &Error{Code: CodeValidation}
	ErrInternal                   = &Error{Code: CodeInternal}
)

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap conserva la causa original (útil para errores de storage).
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf devuelve el Code más externo; cualquier error no tipado es interno.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Message devuelve el texto apto para el caller (sin la causa interna).
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return string(e.Code)
	}
	return ""
}
