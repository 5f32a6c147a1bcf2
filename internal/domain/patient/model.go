package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Identity fields (name, birth date,
// gender) are fixed at registration; contact fields may change.
type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	MRN              string     `db:"mrn" json:"mrn"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender           *string    `db:"gender" json:"gender,omitempty"`
	BloodGroup       *string    `db:"blood_group" json:"blood_group,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	Email            *string    `db:"email" json:"email,omitempty"`
	AddressLine1     *string    `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2     *string    `db:"address_line2" json:"address_line2,omitempty"`
	City             *string    `db:"city" json:"city,omitempty"`
	PostalCode       *string    `db:"postal_code" json:"postal_code,omitempty"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone   *string    `db:"emergency_phone" json:"emergency_phone,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// ContactUpdate carries the mutable subset of a patient record.
type ContactUpdate struct {
	Phone            *string `json:"phone,omitempty"`
	Email            *string `json:"email,omitempty"`
	AddressLine1     *string `json:"address_line1,omitempty"`
	AddressLine2     *string `json:"address_line2,omitempty"`
	City             *string `json:"city,omitempty"`
	PostalCode       *string `json:"postal_code,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
	EmergencyPhone   *string `json:"emergency_phone,omitempty"`
}
