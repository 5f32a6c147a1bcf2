package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueRow is a visit joined with the names the queue views display.
type QueueRow struct {
	Visit
	PatientName string
	DoctorName  *string
}

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// GetForUpdate locks the visit row for the duration of the surrounding
	// transaction so concurrent transitions serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	// NextQueuePosition allocates the next position for the day. Callers must
	// hold an open transaction; allocation takes a per-day advisory lock so
	// two walk-ins never draw the same position.
	NextQueuePosition(ctx context.Context, day time.Time) (int, error)
	// CountActiveForPatient counts the patient's non-terminal visits on the
	// given day.
	CountActiveForPatient(ctx context.Context, patientID uuid.UUID, day time.Time) (int, error)
	// ListDay returns every visit for the day, joined with patient and
	// doctor names, in storage order. Ordering is the service's job.
	ListDay(ctx context.Context, day time.Time) ([]*QueueRow, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
}
