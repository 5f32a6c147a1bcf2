package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, cons *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Consultation, error)
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Consultation, error)
	// CountActiveForVisit counts non-completed consultations for the visit.
	CountActiveForVisit(ctx context.Context, visitID uuid.UUID) (int, error)
	Update(ctx context.Context, cons *Consultation) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)

	// Vitals
	AddVitals(ctx context.Context, v *Vitals) error
	GetVitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error)

	// Allergies
	AddAllergy(ctx context.Context, a *Allergy) error
	ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error)

	// Medical history
	AddHistory(ctx context.Context, h *HistoryEntry) error
	ListHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error)
}
