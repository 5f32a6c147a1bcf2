package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a patient record. The MRN is assigned by the store and
// identity fields are immutable afterwards.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" {
		return apperr.Validation("first_name_required", "first_name is required")
	}
	if p.LastName == "" {
		return apperr.Validation("last_name_required", "last_name is required")
	}
	if p.Email != nil && !strings.Contains(*p.Email, "@") {
		return apperr.Validation("invalid_email", "email is not valid")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

// UpdateContact changes the mutable contact fields only.
func (s *Service) UpdateContact(ctx context.Context, id uuid.UUID, upd ContactUpdate) (*Patient, error) {
	if upd.Email != nil && !strings.Contains(*upd.Email, "@") {
		return nil, apperr.Validation("invalid_email", "email is not valid")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.UpdateContact(ctx, id, upd)
}

func (s *Service) List(ctx context.Context, nameFilter string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, strings.TrimSpace(nameFilter), limit, offset)
}
