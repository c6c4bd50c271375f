package identity

import (
	"strings"

	dErrors "my-pet/internal/domainerrors"
)

// ID es la identidad de un principal: "0x" seguido de hasta 40 dígitos hex
// (la forma larga es la que deriva el adapter keysig de una clave pública).
// Siempre se guarda normalizada en minúsculas.
type ID string

const maxHexDigits = 40

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// Parse normaliza y valida una identidad.
func Parse(raw string) (ID, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "0x") {
		return "", dErrors.Newf(dErrors.CodeValidation, "identity %q must start with 0x", raw)
	}
	digits := s[2:]
	if len(digits) == 0 || len(digits) > maxHexDigits {
		return "", dErrors.Newf(dErrors.CodeValidation, "identity %q must have 1-%d hex digits", raw, maxHexDigits)
	}

	allZero := true
	for _, c := range digits {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		if !isHex {
			return "", dErrors.Newf(dErrors.CodeValidation, "identity %q is not hex", raw)
		}
		if c != '0' {
			allZero = false
		}
	}
	// 0x0 es la "dirección nula", nunca un principal válido.
	if allZero {
		return "", dErrors.Newf(dErrors.CodeValidation, "identity %q is the zero identity", raw)
	}

	return ID(s), nil
}

// MustParse es para tests y constantes.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate comprueba que un ID ya construido esté normalizado.
func Validate(id ID) error {
	parsed, err := Parse(string(id))
	if err != nil {
		return err
	}
	if parsed != id {
		return dErrors.Newf(dErrors.CodeValidation, "identity %q is not normalized", string(id))
	}
	return nil
}
