package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for prescriptions and their items.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	CreateItem(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Prescription, error)
	ListItems(ctx context.Context, prescriptionID uuid.UUID) ([]*Item, error)
	GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	ListPending(ctx context.Context, limit, offset int) ([]*PendingRow, int, error)
}

// PendingRow is an undispensed item joined with prescription and patient
// context for the pharmacy work queue.
type PendingRow struct {
	Item
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
}
