package consultation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/domain/visit"
	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/db"
)

// VisitCompleter is the slice of the visit engine consulted when a
// consultation completes. Satisfied by *visit.Service.
type VisitCompleter interface {
	Complete(ctx context.Context, visitID uuid.UUID) (*visit.Visit, error)
}

type Service struct {
	repo   Repository
	tx     db.TxRunner
	visits VisitCompleter
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, visits VisitCompleter, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		visits: visits,
		logger: logger,
		now:    time.Now,
	}
}

// StartForVisit opens the consultation for a freshly claimed visit. It runs
// inside the visit engine's claim transaction; a visit can never hold two
// active consultations.
func (s *Service) StartForVisit(ctx context.Context, visitID, patientID, doctorID uuid.UUID) error {
	active, err := s.repo.CountActiveForVisit(ctx, visitID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperr.Conflict("consultation_active", "visit already has an active consultation")
	}

	cons := &Consultation{
		VisitID:   visitID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    StatusInProgress,
		StartedAt: s.now().UTC(),
	}
	return s.repo.Create(ctx, cons)
}

// ClinicalUpdate carries the fields a doctor edits during an encounter.
type ClinicalUpdate struct {
	Symptoms     *string    `json:"symptoms,omitempty"`
	Diagnosis    *string    `json:"diagnosis,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
}

// Update edits the clinical content of an in-progress consultation.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd ClinicalUpdate) (*Consultation, error) {
	var cons *Consultation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cons, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cons.Status == StatusCompleted {
			return apperr.Conflict("consultation_completed", "consultation is already completed")
		}

		if upd.Symptoms != nil {
			cons.Symptoms = upd.Symptoms
		}
		if upd.Diagnosis != nil {
			cons.Diagnosis = upd.Diagnosis
		}
		if upd.Notes != nil {
			cons.Notes = upd.Notes
		}
		if upd.FollowUpDate != nil {
			cons.FollowUpDate = upd.FollowUpDate
		}
		return s.repo.Update(ctx, cons)
	})
	if err != nil {
		return nil, err
	}
	return cons, nil
}

// Complete closes the consultation and its parent visit in one transaction.
// A diagnosis is required; double-complete fails with a conflict.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	var cons *Consultation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		cons, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cons.Status == StatusCompleted {
			return apperr.Conflict("consultation_completed", "consultation is already completed")
		}
		if cons.Diagnosis == nil || strings.TrimSpace(*cons.Diagnosis) == "" {
			return apperr.Validation("diagnosis_required", "a diagnosis is required to complete the consultation")
		}

		now := s.now().UTC()
		cons.Status = StatusCompleted
		cons.CompletedAt = &now
		if err := s.repo.Update(ctx, cons); err != nil {
			return err
		}

		_, err = s.visits.Complete(ctx, cons.VisitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("consultation_id", cons.ID.String()).
		Str("visit_id", cons.VisitID.String()).
		Msg("consultation completed")
	return cons, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Consultation, error) {
	return s.repo.GetByVisit(ctx, visitID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// RecordVitals stores one measurement set against a visit.
func (s *Service) RecordVitals(ctx context.Context, v *Vitals) error {
	if v.VisitID == uuid.Nil {
		return apperr.Validation("visit_required", "visit_id is required")
	}
	if v.TemperatureC == nil && v.PulseBPM == nil && v.SystolicMmHg == nil &&
		v.DiastolicMmHg == nil && v.RespiratoryRate == nil && v.SpO2Percent == nil &&
		v.WeightKg == nil && v.HeightCm == nil {
		return apperr.Validation("empty_vitals", "at least one measurement is required")
	}
	return s.repo.AddVitals(ctx, v)
}

func (s *Service) VitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error) {
	return s.repo.GetVitalsByVisit(ctx, visitID)
}

// AddAllergy records a patient allergy.
func (s *Service) AddAllergy(ctx context.Context, a *Allergy) error {
	a.Substance = strings.TrimSpace(a.Substance)
	if a.Substance == "" {
		return apperr.Validation("substance_required", "substance is required")
	}
	return s.repo.AddAllergy(ctx, a)
}

func (s *Service) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error) {
	return s.repo.ListAllergies(ctx, patientID)
}

// AddHistory records a past condition in the patient's medical history.
func (s *Service) AddHistory(ctx context.Context, h *HistoryEntry) error {
	h.Condition = strings.TrimSpace(h.Condition)
	if h.Condition == "" {
		return apperr.Validation("condition_required", "condition is required")
	}
	return s.repo.AddHistory(ctx, h)
}

func (s *Service) ListHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error) {
	return s.repo.ListHistory(ctx, patientID)
}
