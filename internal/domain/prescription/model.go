package prescription

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the dispensing state of one prescription item. Items are
// dispensed independently of one another and of the consultation's state.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemDispensed ItemStatus = "dispensed"
)

// Prescription maps to the prescription table, anchored to a consultation.
type Prescription struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConsultationID uuid.UUID `db:"consultation_id" json:"consultation_id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Items          []*Item   `db:"-" json:"items,omitempty"`
}

// Item maps to the prescription_item table.
type Item struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	DrugName       string     `db:"drug_name" json:"drug_name"`
	Dosage         string     `db:"dosage" json:"dosage"`
	Frequency      string     `db:"frequency" json:"frequency"`
	DurationDays   int        `db:"duration_days" json:"duration_days"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Instructions   *string    `db:"instructions" json:"instructions,omitempty"`
	Status         ItemStatus `db:"status" json:"status"`
	DispensedBy    *string    `db:"dispensed_by" json:"dispensed_by,omitempty"`
	DispensedAt    *time.Time `db:"dispensed_at" json:"dispensed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
