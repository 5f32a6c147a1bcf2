package consultation

import (
	"context"
	"errors"

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

const consCols = `id, visit_id, patient_id, doctor_id, symptoms, diagnosis, notes,
	follow_up_date, status, started_at, completed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, cons *Consultation) error {
	cons.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation (
			id, visit_id, patient_id, doctor_id, symptoms, diagnosis, notes,
			follow_up_date, status, started_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		cons.ID, cons.VisitID, cons.PatientID, cons.DoctorID, cons.Symptoms, cons.Diagnosis,
		cons.Notes, cons.FollowUpDate, cons.Status, cons.StartedAt,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanCons(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consCols+` FROM consultation WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanCons(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consCols+` FROM consultation WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Consultation, error) {
	return scanCons(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consCols+` FROM consultation WHERE visit_id = $1 ORDER BY started_at DESC LIMIT 1`,
		visitID))
}

func (r *repoPG) CountActiveForVisit(ctx context.Context, visitID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultation WHERE visit_id = $1 AND status <> 'completed'`,
		visitID).Scan(&n)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}

func (r *repoPG) Update(ctx context.Context, cons *Consultation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation SET
			symptoms=$2, diagnosis=$3, notes=$4, follow_up_date=$5,
			status=$6, completed_at=$7, updated_at=NOW()
		WHERE id = $1`,
		cons.ID, cons.Symptoms, cons.Diagnosis, cons.Notes, cons.FollowUpDate,
		cons.Status, cons.CompletedAt,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultation WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consCols+` FROM consultation WHERE patient_id = $1 ORDER BY started_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(
			&c.ID, &c.VisitID, &c.PatientID, &c.DoctorID, &c.Symptoms, &c.Diagnosis, &c.Notes,
			&c.FollowUpDate, &c.Status, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Storage(err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return out, total, nil
}

func (r *repoPG) AddVitals(ctx context.Context, v *Vitals) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vitals (
			id, visit_id, recorded_by, temperature_c, pulse_bpm, systolic_mmhg,
			diastolic_mmhg, respiratory_rate, spo2_percent, height_cm, weight_kg
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.VisitID, v.RecordedBy, v.TemperatureC, v.PulseBPM, v.SystolicMmHg,
		v.DiastolicMmHg, v.RespiratoryRate, v.SpO2Percent, v.HeightCm, v.WeightKg,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetVitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, recorded_by, temperature_c, pulse_bpm, systolic_mmhg,
			diastolic_mmhg, respiratory_rate, spo2_percent, height_cm, weight_kg, recorded_at
		FROM vitals WHERE visit_id = $1 ORDER BY recorded_at`, visitID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*Vitals
	for rows.Next() {
		var v Vitals
		if err := rows.Scan(
			&v.ID, &v.VisitID, &v.RecordedBy, &v.TemperatureC, &v.PulseBPM, &v.SystolicMmHg,
			&v.DiastolicMmHg, &v.RespiratoryRate, &v.SpO2Percent, &v.HeightCm, &v.WeightKg, &v.RecordedAt,
		); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) AddAllergy(ctx context.Context, a *Allergy) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO allergy (id, patient_id, substance, reaction, severity, noted_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.PatientID, a.Substance, a.Reaction, a.Severity, a.NotedBy,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*Allergy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, substance, reaction, severity, noted_by, created_at
		FROM allergy WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*Allergy
	for rows.Next() {
		var a Allergy
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Substance, &a.Reaction, &a.Severity, &a.NotedBy, &a.CreatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) AddHistory(ctx context.Context, h *HistoryEntry) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_history (id, patient_id, condition, diagnosed_at, notes, noted_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		h.ID, h.PatientID, h.Condition, h.DiagnosedAt, h.Notes, h.NotedBy,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) ListHistory(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, condition, diagnosed_at, notes, noted_by, created_at
		FROM medical_history WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.PatientID, &h.Condition, &h.DiagnosedAt, &h.Notes, &h.NotedBy, &h.CreatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func scanCons(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.VisitID, &c.PatientID, &c.DoctorID, &c.Symptoms, &c.Diagnosis, &c.Notes,
		&c.FollowUpDate, &c.Status, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultation_not_found", "consultation does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &c, nil
}
