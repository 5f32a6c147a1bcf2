package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	UpdateContact(ctx context.Context, id uuid.UUID, upd ContactUpdate) (*Patient, error)
	List(ctx context.Context, nameFilter string, limit, offset int) ([]*Patient, int, error)
}
