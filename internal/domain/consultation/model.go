package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Status of a consultation. At most one non-completed consultation exists
// per visit.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Consultation maps to the consultation table. It anchors the clinical
// content of one doctor encounter: notes, diagnosis, prescriptions.
type Consultation struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	VisitID      uuid.UUID  `db:"visit_id" json:"visit_id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Symptoms     *string    `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis    *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	Status       Status     `db:"status" json:"status"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Vitals maps to the vitals table: one measurement set per row, recorded
// against a visit before or during consultation.
type Vitals struct {
	ID               uuid.UUID `db:"id" json:"id"`
	VisitID          uuid.UUID `db:"visit_id" json:"visit_id"`
	RecordedBy       string    `db:"recorded_by" json:"recorded_by"`
	TemperatureC     *float64  `db:"temperature_c" json:"temperature_c,omitempty"`
	PulseBPM         *int      `db:"pulse_bpm" json:"pulse_bpm,omitempty"`
	SystolicMmHg     *int      `db:"systolic_mmhg" json:"systolic_mmhg,omitempty"`
	DiastolicMmHg    *int      `db:"diastolic_mmhg" json:"diastolic_mmhg,omitempty"`
	RespiratoryRate  *int      `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	SpO2Percent      *int      `db:"spo2_percent" json:"spo2_percent,omitempty"`
	HeightCm         *float64  `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg         *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
}

// Allergy maps to the allergy table, keyed by patient.
type Allergy struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Substance string    `db:"substance" json:"substance"`
	Reaction  *string   `db:"reaction" json:"reaction,omitempty"`
	Severity  *string   `db:"severity" json:"severity,omitempty"`
	NotedBy   string    `db:"noted_by" json:"noted_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HistoryEntry maps to the medical_history table, keyed by patient.
type HistoryEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Condition   string     `db:"condition" json:"condition"`
	DiagnosedAt *time.Time `db:"diagnosed_at" json:"diagnosed_at,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	NotedBy     string     `db:"noted_by" json:"noted_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
