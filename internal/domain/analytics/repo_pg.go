package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) VisitStatusCounts(ctx context.Context, day time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM visit
		WHERE arrived_at::date = $1::date
		GROUP BY status`, day)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperr.Storage(err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return counts, nil
}

// AvgWaitMinutes measures arrival to call-up for visits called today.
// Visits still waiting do not count until a doctor claims them.
func (r *repoPG) AvgWaitMinutes(ctx context.Context, day time.Time) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (called_at - arrived_at)) / 60), 0)
		FROM visit
		WHERE arrived_at::date = $1::date
		  AND called_at IS NOT NULL`, day).Scan(&avg)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return avg, nil
}

func (r *repoPG) CompletedByDoctor(ctx context.Context, day time.Time) ([]DoctorCompleted, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.first_name || ' ' || d.last_name, COUNT(*)
		FROM visit v
		JOIN doctor d ON d.id = v.doctor_id
		WHERE v.arrived_at::date = $1::date
		  AND v.status = 'completed'
		GROUP BY d.id, d.first_name, d.last_name
		ORDER BY COUNT(*) DESC`, day)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []DoctorCompleted
	for rows.Next() {
		var dc DoctorCompleted
		if err := rows.Scan(&dc.DoctorID, &dc.DoctorName, &dc.Completed); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) AppointmentStatusCounts(ctx context.Context, day time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM appointment
		WHERE scheduled_at::date = $1::date
		GROUP BY status`, day)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperr.Storage(err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return counts, nil
}
