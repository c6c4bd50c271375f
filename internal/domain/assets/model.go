package assets

import (
	"time"

	"my-pet/internal/domain/identity"
)

// HealthStatus define el estado de salud declarado por el dueño.
// @Enum Healthy, Sick, Recovering, Critical
type HealthStatus string

const (
	HealthHealthy    HealthStatus = "Healthy"
	HealthSick       HealthStatus = "Sick"
	HealthRecovering HealthStatus = "Recovering"
	HealthCritical   HealthStatus = "Critical"
)

func (h HealthStatus) Valid() bool {
	switch h {
	case HealthHealthy, HealthSick, HealthRecovering, HealthCritical:
		return true
	}
	return false
}

// AdoptionStatus define si la mascota está en adopción.
// @Enum Available, Adopted, Processing, NotAvailable
type AdoptionStatus string

const (
	AdoptionAvailable    AdoptionStatus = "Available"
	AdoptionAdopted      AdoptionStatus = "Adopted"
	AdoptionProcessing   AdoptionStatus = "Processing"
	AdoptionNotAvailable AdoptionStatus = "NotAvailable"
)

func (a AdoptionStatus) Valid() bool {
	switch a {
	case AdoptionAvailable, AdoptionAdopted, AdoptionProcessing, AdoptionNotAvailable:
		return true
	}
	return false
}

// Pet tiene exactamente un dueño; solo una adopción lo cambia.
type Pet struct {
	ID    uint64
	Owner identity.ID

	// InstitutionID es el refugio que administra la mascota (0 = ninguno).
	InstitutionID uint64

	Name        string
	Species     string
	Breed       string
	Gender      string
	Age         uint32
	Description string
	Images      []string // referencias opacas (URL / CID)

	HealthStatus   HealthStatus
	AdoptionStatus AdoptionStatus

	MedicalRecordIDs []uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time

	// RemovedAt != nil: fuera de la lista del dueño; el historial se conserva.
	RemovedAt *time.Time
}

func (p Pet) Removed() bool { return p.RemovedAt != nil }

// MedicalEvent es append-only.
type MedicalEvent struct {
	ID    uint64
	PetID uint64

	Diagnosis string
	Treatment string

	Hospital      identity.ID
	Doctor        identity.ID
	InstitutionID uint64

	Timestamp time.Time
}

// AdoptionEvent es append-only.
type AdoptionEvent struct {
	ID    uint64
	PetID uint64

	Adopter       identity.ID
	PreviousOwner identity.ID
	InstitutionID uint64
	Notes         string

	Timestamp time.Time
}

// RescueStatus es el estado de una solicitud de rescate.
// @Enum pending, in_progress, completed, cancelled
type RescueStatus string

const (
	RescuePending    RescueStatus = "pending"
	RescueInProgress RescueStatus = "in_progress"
	RescueCompleted  RescueStatus = "completed"
	RescueCancelled  RescueStatus = "cancelled"
)

func (s RescueStatus) Valid() bool {
	_, ok := rescueTransitions[s]
	return ok
}

// rescueTransitions: cualquier estado puede pasar a cualquier otro; solo se
// prohíbe repetir el actual.
var rescueTransitions = map[RescueStatus][]RescueStatus{
	RescuePending:    {RescueInProgress, RescueCompleted, RescueCancelled},
	RescueInProgress: {RescuePending, RescueCompleted, RescueCancelled},
	RescueCompleted:  {RescuePending, RescueInProgress, RescueCancelled},
	RescueCancelled:  {RescuePending, RescueInProgress, RescueCompleted},
}

func (s RescueStatus) CanTransitionTo(next RescueStatus) bool {
	for _, to := range rescueTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

const (
	MinUrgency uint8 = 1
	MaxUrgency uint8 = 3
)

// RescueRequest: solo Status y ResponderOrgID cambian tras el alta.
type RescueRequest struct {
	ID        uint64
	Requester identity.ID

	Location     string
	Description  string
	Images       []string
	UrgencyLevel uint8

	Status         RescueStatus
	ResponderOrgID uint64 // 0 = sin asignar

	Timestamp time.Time
	UpdatedAt time.Time
}
