package visit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const visitCols = `id, patient_id, doctor_id, appointment_id, visit_type, priority, status,
	queue_number, queue_position, reason, notes, cancel_reason,
	arrived_at, called_at, completed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (
			id, patient_id, doctor_id, appointment_id, visit_type, priority, status,
			queue_number, queue_position, reason, notes, cancel_reason,
			arrived_at, called_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		v.ID, v.PatientID, v.DoctorID, v.AppointmentID, v.VisitType, v.Priority, v.Status,
		v.QueueNumber, v.QueuePosition, v.Reason, v.Notes, v.CancelReason,
		v.ArrivedAt, v.CalledAt, v.CompletedAt,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET
			doctor_id=$2, priority=$3, status=$4, notes=$5, cancel_reason=$6,
			called_at=$7, completed_at=$8, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.DoctorID, v.Priority, v.Status, v.Notes, v.CancelReason,
		v.CalledAt, v.CompletedAt,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// NextQueuePosition serializes per-day allocation with a transaction-scoped
// advisory lock keyed on the date, then takes MAX+1.
func (r *repoPG) NextQueuePosition(ctx context.Context, day time.Time) (int, error) {
	q := r.conn(ctx)

	// 20260831 as an int64 lock key: unique per calendar day.
	lockKey, _ := strconv.ParseInt(day.Format("20060102"), 10, 64)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
		return 0, apperr.Storage(err)
	}

	var pos int
	err := q.QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_position), 0) + 1
		FROM visit
		WHERE arrived_at::date = $1::date`, day).Scan(&pos)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return pos, nil
}

func (r *repoPG) CountActiveForPatient(ctx context.Context, patientID uuid.UUID, day time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM visit
		WHERE patient_id = $1
		  AND arrived_at::date = $2::date
		  AND status IN ('waiting', 'in_progress')`,
		patientID, day).Scan(&n)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func (r *repoPG) ListDay(ctx context.Context, day time.Time) ([]*QueueRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.id, v.patient_id, v.doctor_id, v.appointment_id, v.visit_type, v.priority, v.status,
			v.queue_number, v.queue_position, v.reason, v.notes, v.cancel_reason,
			v.arrived_at, v.called_at, v.completed_at, v.created_at, v.updated_at,
			p.first_name || ' ' || p.last_name,
			d.first_name || ' ' || d.last_name
		FROM visit v
		JOIN patient p ON p.id = v.patient_id
		LEFT JOIN doctor d ON d.id = v.doctor_id
		WHERE v.arrived_at::date = $1::date`, day)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*QueueRow
	for rows.Next() {
		var qr QueueRow
		if err := rows.Scan(
			&qr.ID, &qr.PatientID, &qr.DoctorID, &qr.AppointmentID, &qr.VisitType, &qr.Priority, &qr.Status,
			&qr.QueueNumber, &qr.QueuePosition, &qr.Reason, &qr.Notes, &qr.CancelReason,
			&qr.ArrivedAt, &qr.CalledAt, &qr.CompletedAt, &qr.CreatedAt, &qr.UpdatedAt,
			&qr.PatientName, &qr.DoctorName,
		); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, &qr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit WHERE patient_id = $1 ORDER BY arrived_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(
			&v.ID, &v.PatientID, &v.DoctorID, &v.AppointmentID, &v.VisitType, &v.Priority, &v.Status,
			&v.QueueNumber, &v.QueuePosition, &v.Reason, &v.Notes, &v.CancelReason,
			&v.ArrivedAt, &v.CalledAt, &v.CompletedAt, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Storage(err)
		}
		visits = append(visits, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return visits, total, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID, &v.PatientID, &v.DoctorID, &v.AppointmentID, &v.VisitType, &v.Priority, &v.Status,
		&v.QueueNumber, &v.QueuePosition, &v.Reason, &v.Notes, &v.CancelReason,
		&v.ArrivedAt, &v.CalledAt, &v.CompletedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("visit_not_found", "visit does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &v, nil
}
