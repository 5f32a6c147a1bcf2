package appointment

import (
	"context"
	"errors"
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

const apptCols = `id, patient_id, doctor_id, scheduled_at, duration_minutes, purpose,
	status, notes, cancel_reason, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (
			id, patient_id, doctor_id, scheduled_at, duration_minutes, purpose, status, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.DurationMinutes, a.Purpose, a.Status, a.Notes,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			scheduled_at=$2, duration_minutes=$3, purpose=$4, status=$5,
			notes=$6, cancel_reason=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ScheduledAt, a.DurationMinutes, a.Purpose, a.Status, a.Notes, a.CancelReason,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointment
		WHERE doctor_id = $1
		  AND id <> $4
		  AND status IN ('scheduled', 'confirmed', 'checked_in')
		  AND scheduled_at < $3
		  AND scheduled_at + (duration_minutes || ' minutes')::interval > $2`,
		doctorID, start, end, exclude).Scan(&n)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE ($1::date IS NULL OR scheduled_at::date = $1::date)
	  AND ($2::uuid IS NULL OR doctor_id = $2)
	  AND ($3::uuid IS NULL OR patient_id = $3)
	  AND ($4 = '' OR status = $4)`
	args := []interface{}{f.Day, f.DoctorID, f.PatientID, string(f.Status)}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment `+where+` ORDER BY scheduled_at LIMIT $5 OFFSET $6`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.DurationMinutes, &a.Purpose,
			&a.Status, &a.Notes, &a.CancelReason, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Storage(err)
		}
		appts = append(appts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return appts, total, nil
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.DurationMinutes, &a.Purpose,
		&a.Status, &a.Notes, &a.CancelReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment_not_found", "appointment does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &a, nil
}
