package visit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the single authoritative lifecycle state of a visit. The legacy
// split between a visit status and a display queue status is derived, never
// stored; see QueueStatus and StatusCategory.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Valid visit statuses.
var validStatuses = map[Status]bool{
	StatusWaiting:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// Priority is the triage priority assigned at check-in.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var validPriorities = map[Priority]bool{
	PriorityCritical: true,
	PriorityHigh:     true,
	PriorityMedium:   true,
	PriorityLow:      true,
}

// VisitType distinguishes how the patient entered the clinic.
type VisitType string

const (
	TypeWalkIn    VisitType = "walk_in"
	TypeFirstTime VisitType = "first_time"
	TypeFollowUp  VisitType = "follow_up"
)

var validTypes = map[VisitType]bool{
	TypeWalkIn:    true,
	TypeFirstTime: true,
	TypeFollowUp:  true,
}

// Visit maps to the visit table. One row per patient presence on a given day.
type Visit struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	VisitType     VisitType  `db:"visit_type" json:"visit_type"`
	Priority      Priority   `db:"priority" json:"priority"`
	Status        Status     `db:"status" json:"status"`
	QueueNumber   string     `db:"queue_number" json:"queue_number"`
	QueuePosition int        `db:"queue_position" json:"queue_position"`
	Reason        *string    `db:"reason" json:"reason,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CancelReason  *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	ArrivedAt     time.Time  `db:"arrived_at" json:"arrived_at"`
	CalledAt      *time.Time `db:"called_at" json:"called_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// QueueStatus derives the display grouping the front desk shows. Cancelled
// and no-show visits collapse into one bucket.
func (v *Visit) QueueStatus() string {
	switch v.Status {
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	case StatusCancelled, StatusNoShow:
		return "cancelled"
	default:
		return "waiting"
	}
}

// StatusCategory divides the queue into active and completed halves. Any
// terminal indication means completed.
func (v *Visit) StatusCategory() string {
	if v.Status.Terminal() {
		return "completed"
	}
	return "active"
}

// FormatQueueNumber builds the human-readable daily ticket, e.g.
// Q-20260831-007.
func FormatQueueNumber(day time.Time, position int) string {
	return fmt.Sprintf("Q-%s-%03d", day.Format("20060102"), position)
}

// statusRank orders queue display groups: patients being seen first, then
// the waiting line, then the day's finished visits.
func statusRank(s Status) int {
	switch s {
	case StatusInProgress:
		return 0
	case StatusWaiting:
		return 1
	case StatusCompleted:
		return 2
	default: // cancelled, no_show
		return 3
	}
}

// priorityRank orders triage priorities; anything unrecognized sorts last.
func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Compare is the one ordering used by every queue projection: status rank,
// then triage rank, then queue position, then arrival time. It decides who
// is called next, so all consumers must sort with it rather than with their
// own ORDER BY.
func Compare(a, b *Visit) int {
	if d := statusRank(a.Status) - statusRank(b.Status); d != 0 {
		return d
	}
	if d := priorityRank(a.Priority) - priorityRank(b.Priority); d != 0 {
		return d
	}
	if d := a.QueuePosition - b.QueuePosition; d != 0 {
		return d
	}
	switch {
	case a.ArrivedAt.Before(b.ArrivedAt):
		return -1
	case a.ArrivedAt.After(b.ArrivedAt):
		return 1
	}
	return 0
}

// QueueEntry is a visit annotated for the front-desk and doctor views.
type QueueEntry struct {
	Visit
	PatientName       string  `json:"patient_name"`
	DoctorName        *string `json:"doctor_name,omitempty"`
	QueueStatusTag    string  `json:"queue_status"`
	StatusCategoryTag string  `json:"status_category"`
}

// NewQueueEntry annotates a visit with its derived display fields.
func NewQueueEntry(v *Visit, patientName string, doctorName *string) *QueueEntry {
	return &QueueEntry{
		Visit:             *v,
		PatientName:       patientName,
		DoctorName:        doctorName,
		QueueStatusTag:    v.QueueStatus(),
		StatusCategoryTag: v.StatusCategory(),
	}
}
