package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/db"
)

const defaultDurationMinutes = 30

type Service struct {
	repo   Repository
	tx     db.TxRunner
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

// Book schedules a future appointment. The doctor's slot must be free.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_required", "patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_required", "doctor_id is required")
	}
	if a.ScheduledAt.Before(s.now()) {
		return apperr.Validation("past_time", "scheduled_at must be in the future")
	}
	if a.DurationMinutes <= 0 {
		a.DurationMinutes = defaultDurationMinutes
	}
	a.Status = StatusScheduled

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		overlapping, err := s.repo.CountOverlapping(ctx, a.DoctorID, a.ScheduledAt, a.End(), uuid.Nil)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperr.Conflict("slot_taken", "doctor already has an appointment in this slot")
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Time("scheduled_at", a.ScheduledAt).
		Msg("appointment booked")
	return nil
}

// Confirm acknowledges a scheduled appointment.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusScheduled {
			return apperr.Conflict("not_confirmable",
				"appointment is %s, only scheduled appointments can be confirmed", a.Status)
		}
		a.Status = StatusConfirmed
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel terminates a non-terminal appointment with a mandatory reason.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason_required", "cancellation reason is required")
	}

	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status.Terminal() {
			return apperr.Conflict("already_terminal", "appointment is already %s", a.Status)
		}
		a.Status = StatusCancelled
		a.CancelReason = &reason
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves a non-terminal appointment to a new free slot.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newTime time.Time) (*Appointment, error) {
	if newTime.Before(s.now()) {
		return nil, apperr.Validation("past_time", "scheduled_at must be in the future")
	}

	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status.Terminal() || a.Status == StatusCheckedIn {
			return apperr.Conflict("not_reschedulable", "appointment is %s", a.Status)
		}

		end := newTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
		overlapping, err := s.repo.CountOverlapping(ctx, a.DoctorID, newTime, end, a.ID)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperr.Conflict("slot_taken", "doctor already has an appointment in this slot")
		}

		a.ScheduledAt = newTime
		a.Status = StatusScheduled
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MarkNoShow flags a missed appointment after its slot has passed.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a *Appointment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			return apperr.Conflict("not_markable", "appointment is %s", a.Status)
		}
		if a.End().After(s.now()) {
			return apperr.Conflict("slot_not_passed", "appointment slot has not passed yet")
		}
		a.Status = StatusNoShow
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// GetForCheckIn and MarkCheckedIn implement the visit engine's appointment
// collaborator contract. Both expect to run inside the engine's transaction.

func (s *Service) GetForCheckIn(ctx context.Context, id uuid.UUID) (uuid.UUID, *uuid.UUID, *string, error) {
	a, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return uuid.Nil, nil, nil, err
	}
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return uuid.Nil, nil, nil, apperr.Conflict("not_checkinable",
			"appointment is %s, only scheduled or confirmed appointments can check in", a.Status)
	}
	doctorID := a.DoctorID
	return a.PatientID, &doctorID, a.Purpose, nil
}

func (s *Service) MarkCheckedIn(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return err
	}
	a.Status = StatusCheckedIn
	return s.repo.Update(ctx, a)
}
