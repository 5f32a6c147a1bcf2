package prescription

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/domain/consultation"
	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/db"
)

// ConsultationReader resolves the consultation a prescription is written
// against. Satisfied by *consultation.Service.
type ConsultationReader interface {
	Get(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error)
}

type Service struct {
	repo          Repository
	tx            db.TxRunner
	consultations ConsultationReader
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, consultations ConsultationReader, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		tx:            tx,
		consultations: consultations,
		logger:        logger,
		now:           time.Now,
	}
}

// ItemInput is one drug line on a new prescription.
type ItemInput struct {
	DrugName     string  `json:"drug_name"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	DurationDays int     `json:"duration_days"`
	Quantity     int     `json:"quantity"`
	Instructions *string `json:"instructions,omitempty"`
}

// CreateInput is the request body for writing a prescription.
type CreateInput struct {
	ConsultationID uuid.UUID   `json:"consultation_id"`
	Notes          *string     `json:"notes,omitempty"`
	Items          []ItemInput `json:"items"`
}

func (in CreateInput) validate() error {
	if in.ConsultationID == uuid.Nil {
		return apperr.Validation("consultation_id_required", "consultation_id is required")
	}
	if len(in.Items) == 0 {
		return apperr.Validation("items_required", "a prescription needs at least one item")
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.DrugName) == "" {
			return apperr.Validation("drug_name_required", "item %d: drug_name is required", i+1)
		}
		if strings.TrimSpace(item.Dosage) == "" {
			return apperr.Validation("dosage_required", "item %d: dosage is required", i+1)
		}
		if strings.TrimSpace(item.Frequency) == "" {
			return apperr.Validation("frequency_required", "item %d: frequency is required", i+1)
		}
		if item.DurationDays <= 0 {
			return apperr.Validation("duration_invalid", "item %d: duration_days must be positive", i+1)
		}
		if item.Quantity <= 0 {
			return apperr.Validation("quantity_invalid", "item %d: quantity must be positive", i+1)
		}
	}
	return nil
}

// Create writes a prescription with its items in one transaction. A
// consultation carries at most one prescription.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	cons, err := s.consultations.Get(ctx, in.ConsultationID)
	if err != nil {
		return nil, err
	}

	var p *Prescription
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.GetByConsultation(ctx, in.ConsultationID); err == nil && existing != nil {
			return apperr.Conflict("prescription_exists", "consultation already has a prescription")
		} else if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}

		p = &Prescription{
			ConsultationID: cons.ID,
			PatientID:      cons.PatientID,
			DoctorID:       cons.DoctorID,
			Notes:          in.Notes,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		for _, it := range in.Items {
			item := &Item{
				PrescriptionID: p.ID,
				DrugName:       strings.TrimSpace(it.DrugName),
				Dosage:         strings.TrimSpace(it.Dosage),
				Frequency:      strings.TrimSpace(it.Frequency),
				DurationDays:   it.DurationDays,
				Quantity:       it.Quantity,
				Instructions:   it.Instructions,
				Status:         ItemPending,
			}
			if err := s.repo.CreateItem(ctx, item); err != nil {
				return err
			}
			p.Items = append(p.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Str("consultation_id", cons.ID.String()).
		Int("items", len(p.Items)).
		Msg("prescription created")
	return p, nil
}

// Get returns a prescription with its items loaded.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, p)
}

// GetByConsultation resolves the prescription written during a consultation.
func (s *Service) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByConsultation(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, p)
}

// ListPending is the pharmacy work queue: every undispensed item, oldest
// first.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*PendingRow, int, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

// DispenseItem marks one item handed over. Dispensing is idempotent-hostile:
// a second attempt conflicts rather than silently succeeding.
func (s *Service) DispenseItem(ctx context.Context, itemID uuid.UUID, dispensedBy string) (*Item, error) {
	var item *Item
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.repo.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status == ItemDispensed {
			return apperr.Conflict("item_dispensed", "prescription item is already dispensed")
		}

		now := s.now().UTC()
		item.Status = ItemDispensed
		item.DispensedBy = &dispensedBy
		item.DispensedAt = &now
		return s.repo.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID.String()).
		Str("dispensed_by", dispensedBy).
		Msg("prescription item dispensed")
	return item, nil
}

func (s *Service) withItems(ctx context.Context, p *Prescription) (*Prescription, error) {
	items, err := s.repo.ListItems(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}
