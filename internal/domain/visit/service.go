package visit

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/db"
)

// ConsultationStarter is implemented by the consultation service so that
// claiming a visit opens its consultation in the same transaction.
type ConsultationStarter interface {
	StartForVisit(ctx context.Context, visitID, patientID, doctorID uuid.UUID) error
}

// AppointmentCheckIn is the slice of the appointment service the engine
// needs to convert a scheduled appointment into a visit.
type AppointmentCheckIn interface {
	GetForCheckIn(ctx context.Context, appointmentID uuid.UUID) (patientID uuid.UUID, doctorID *uuid.UUID, purpose *string, err error)
	MarkCheckedIn(ctx context.Context, appointmentID uuid.UUID) error
}

// Service is the visit lifecycle engine. It is the only writer of visit
// status: every transition goes through one of its methods and runs inside a
// single transaction together with any dependent rows.
type Service struct {
	repo          Repository
	tx            db.TxRunner
	consultations ConsultationStarter
	appointments  AppointmentCheckIn
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

// SetConsultationStarter wires the consultation collaborator. Optional: if
// absent, claiming a visit transitions state without opening a consultation.
func (s *Service) SetConsultationStarter(cs ConsultationStarter) { s.consultations = cs }

// SetAppointmentCheckIn wires the appointment collaborator.
func (s *Service) SetAppointmentCheckIn(ac AppointmentCheckIn) { s.appointments = ac }

// CreateWalkInInput carries the front-desk registration form.
type CreateWalkInInput struct {
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	VisitType VisitType  `json:"visit_type"`
	Priority  Priority   `json:"priority"`
	Reason    string     `json:"reason"`
}

// CreateWalkIn registers a walk-in patient into today's queue. A patient with
// a non-terminal visit today is rejected; the queue position is allocated
// under a per-day lock so concurrent registrations never collide.
func (s *Service) CreateWalkIn(ctx context.Context, in CreateWalkInInput) (*Visit, error) {
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_required", "patient_id is required")
	}
	if in.VisitType == "" {
		in.VisitType = TypeWalkIn
	}
	if !validTypes[in.VisitType] {
		return nil, apperr.Validation("invalid_visit_type", "invalid visit type: %s", in.VisitType)
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !validPriorities[in.Priority] {
		return nil, apperr.Validation("invalid_priority", "invalid triage priority: %s", in.Priority)
	}

	now := s.now().UTC()
	v := &Visit{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		VisitType: in.VisitType,
		Priority:  in.Priority,
		Status:    StatusWaiting,
		ArrivedAt: now,
	}
	if r := strings.TrimSpace(in.Reason); r != "" {
		v.Reason = &r
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		active, err := s.repo.CountActiveForPatient(ctx, in.PatientID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict("already_in_queue",
				"patient already has an active visit today")
		}

		pos, err := s.repo.NextQueuePosition(ctx, now)
		if err != nil {
			return err
		}
		v.QueuePosition = pos
		v.QueueNumber = FormatQueueNumber(now, pos)

		return s.repo.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("queue_number", v.QueueNumber).
		Str("priority", string(v.Priority)).
		Msg("walk-in visit created")
	return v, nil
}

// CheckInAppointment converts a scheduled appointment into today's visit.
// The appointment row and the new visit row commit together.
func (s *Service) CheckInAppointment(ctx context.Context, appointmentID uuid.UUID) (*Visit, error) {
	if s.appointments == nil {
		return nil, apperr.Validation("checkin_unavailable", "appointment check-in is not configured")
	}

	now := s.now().UTC()
	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		patientID, doctorID, purpose, err := s.appointments.GetForCheckIn(ctx, appointmentID)
		if err != nil {
			return err
		}

		active, err := s.repo.CountActiveForPatient(ctx, patientID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict("already_in_queue",
				"patient already has an active visit today")
		}

		pos, err := s.repo.NextQueuePosition(ctx, now)
		if err != nil {
			return err
		}

		apptID := appointmentID
		v = &Visit{
			PatientID:     patientID,
			DoctorID:      doctorID,
			AppointmentID: &apptID,
			VisitType:     TypeFollowUp,
			Priority:      PriorityMedium,
			Status:        StatusWaiting,
			QueuePosition: pos,
			QueueNumber:   FormatQueueNumber(now, pos),
			Reason:        purpose,
			ArrivedAt:     now,
		}
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}

		return s.appointments.MarkCheckedIn(ctx, appointmentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("appointment_id", appointmentID.String()).
		Str("queue_number", v.QueueNumber).
		Msg("appointment checked in")
	return v, nil
}

// Claim moves a waiting visit to in-progress for the claiming doctor and
// opens its consultation. A second claim, or a claim on a terminal visit,
// fails with a conflict and leaves the first claim untouched.
func (s *Service) Claim(ctx context.Context, visitID, doctorID uuid.UUID) (*Visit, error) {
	if doctorID == uuid.Nil {
		return nil, apperr.Validation("doctor_required", "doctor_id is required")
	}

	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.Status != StatusWaiting {
			return apperr.Conflict("not_claimable",
				"visit is %s, only waiting visits can be claimed", v.Status)
		}

		now := s.now().UTC()
		v.Status = StatusInProgress
		v.DoctorID = &doctorID
		v.CalledAt = &now
		if err := s.repo.Update(ctx, v); err != nil {
			return err
		}

		if s.consultations != nil {
			if err := s.consultations.StartForVisit(ctx, v.ID, v.PatientID, doctorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("visit claimed")
	return v, nil
}

// Complete finishes an in-progress visit. Call sites are the consultation
// service (on consultation completion, inside its transaction) and the
// visit handler directly.
func (s *Service) Complete(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.Status != StatusInProgress {
			return apperr.Conflict("not_completable",
				"visit is %s, only in-progress visits can be completed", v.Status)
		}

		now := s.now().UTC()
		v.Status = StatusCompleted
		v.CompletedAt = &now
		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("visit_id", v.ID.String()).Msg("visit completed")
	return v, nil
}

// Cancel terminates a non-terminal visit with a mandatory reason.
func (s *Service) Cancel(ctx context.Context, visitID uuid.UUID, reason string) (*Visit, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason_required", "cancellation reason is required")
	}

	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.Status.Terminal() {
			return apperr.Conflict("already_terminal",
				"visit is already %s", v.Status)
		}

		now := s.now().UTC()
		v.Status = StatusCancelled
		v.CancelReason = &reason
		v.CompletedAt = &now
		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("reason", reason).
		Msg("visit cancelled")
	return v, nil
}

// MarkNoShow flags a waiting visit whose patient never appeared when called.
func (s *Service) MarkNoShow(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.Status != StatusWaiting {
			return apperr.Conflict("not_markable",
				"visit is %s, only waiting visits can be marked no-show", v.Status)
		}

		now := s.now().UTC()
		v.Status = StatusNoShow
		v.CompletedAt = &now
		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("visit_id", v.ID.String()).Msg("visit marked no-show")
	return v, nil
}

// UpdateTriage re-prioritizes a non-terminal visit. The queue position never
// changes; the ordering comparator reacts to the new priority.
func (s *Service) UpdateTriage(ctx context.Context, visitID uuid.UUID, priority Priority) (*Visit, error) {
	if !validPriorities[priority] {
		return nil, apperr.Validation("invalid_priority", "invalid triage priority: %s", priority)
	}

	var v *Visit
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		v, err = s.repo.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.Status.Terminal() {
			return apperr.Conflict("already_terminal",
				"visit is already %s", v.Status)
		}
		v.Priority = priority
		return s.repo.Update(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns one visit.
func (s *Service) Get(ctx context.Context, visitID uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, visitID)
}

// ListByPatient returns a patient's visit history, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// QueueScope selects which projection of today's queue to return.
type QueueScope string

const (
	ScopeAll       QueueScope = "all"
	ScopeActive    QueueScope = "active"
	ScopeCompleted QueueScope = "completed"
)

// TodayQueue is the read-side projection: today's visits sorted with the one
// shared comparator and filtered by scope. It mutates nothing and returns an
// empty slice on an empty day.
func (s *Service) TodayQueue(ctx context.Context, scope QueueScope) ([]*QueueEntry, error) {
	switch scope {
	case "", ScopeAll, ScopeActive, ScopeCompleted:
	default:
		return nil, apperr.Validation("invalid_scope", "scope must be all, active, or completed")
	}

	rows, err := s.repo.ListDay(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	entries := make([]*QueueEntry, 0, len(rows))
	for _, row := range rows {
		e := NewQueueEntry(&row.Visit, row.PatientName, row.DoctorName)
		switch scope {
		case ScopeActive:
			if e.StatusCategoryTag != "active" {
				continue
			}
		case ScopeCompleted:
			if e.StatusCategoryTag != "completed" {
				continue
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(&entries[i].Visit, &entries[j].Visit) < 0
	})
	return entries, nil
}
