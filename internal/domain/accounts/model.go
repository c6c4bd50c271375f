package accounts

import (
	"time"

	"my-pet/internal/domain/access"
	"my-pet/internal/domain/identity"
)

// UserType define si el usuario actúa por sí mismo o por una institución.
// @Enum Personal, Institutional
type UserType string

const (
	UserTypePersonal      UserType = "Personal"
	UserTypeInstitutional UserType = "Institutional"
)

func (t UserType) Valid() bool {
	return t == UserTypePersonal || t == UserTypeInstitutional
}

// User es el perfil de una identidad. Wallet es la clave e ID no cambia
// después del alta.
type User struct {
	ID     uint64
	Wallet identity.ID

	Name  string
	Email string
	Phone string

	UserType UserType
	OrgID    uint64 // 0 = sin afiliación

	// Derivados al leer; no se persisten.
	Role   access.Role
	PetIDs []uint64

	RegisteredAt time.Time
	UpdatedAt    time.Time
}
