package institutions

import (
	"time"

	"my-pet/internal/domain/identity"
)

// Kind define el tipo de institución.
// @Enum Hospital, Shelter
type Kind string

const (
	KindHospital Kind = "Hospital"
	KindShelter  Kind = "Shelter"
)

func (k Kind) Valid() bool {
	return k == KindHospital || k == KindShelter
}

// Institution es un hospital o refugio con su responsable y su plantilla.
type Institution struct {
	ID uint64

	Name string
	Kind Kind

	// ResponsiblePerson es el único que administra Staff.
	ResponsiblePerson identity.ID
	Staff             []identity.ID // orden de alta

	CreatedAt time.Time
}

func (i Institution) HasStaff(id identity.ID) bool {
	for _, s := range i.Staff {
		if s == id {
			return true
		}
	}
	return false
}

// IsMember: responsable o staff. Es lo que cuenta para roles y permisos.
func (i Institution) IsMember(id identity.ID) bool {
	return id == i.ResponsiblePerson || i.HasStaff(id)
}
