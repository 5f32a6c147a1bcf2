package prescription

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

const prescriptionCols = `id, consultation_id, patient_id, doctor_id, notes, created_at`

const itemCols = `id, prescription_id, drug_name, dosage, frequency, duration_days,
	quantity, instructions, status, dispensed_by, dispensed_at, created_at`

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, consultation_id, patient_id, doctor_id, notes)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.ConsultationID, p.PatientID, p.DoctorID, p.Notes,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) CreateItem(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_item (
			id, prescription_id, drug_name, dosage, frequency, duration_days,
			quantity, instructions, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		item.ID, item.PrescriptionID, item.DrugName, item.Dosage, item.Frequency,
		item.DurationDays, item.Quantity, item.Instructions, item.Status,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *repoPG) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE consultation_id = $1`, consultationID))
}

func (r *repoPG) ListItems(ctx context.Context, prescriptionID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM prescription_item WHERE prescription_id = $1 ORDER BY created_at`,
		prescriptionID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := scanItemFields(rows, &it); err != nil {
			return nil, apperr.Storage(err)
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}

func (r *repoPG) GetItemForUpdate(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	var it Item
	err := scanItemFields(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM prescription_item WHERE id = $1 FOR UPDATE`, itemID), &it)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prescription_item_not_found", "prescription item does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &it, nil
}

func (r *repoPG) UpdateItem(ctx context.Context, item *Item) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription_item SET status=$2, dispensed_by=$3, dispensed_at=$4
		WHERE id = $1`,
		item.ID, item.Status, item.DispensedBy, item.DispensedAt,
	)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) ListPending(ctx context.Context, limit, offset int) ([]*PendingRow, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription_item WHERE status = 'pending'`).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.id, i.prescription_id, i.drug_name, i.dosage, i.frequency, i.duration_days,
			i.quantity, i.instructions, i.status, i.dispensed_by, i.dispensed_at, i.created_at,
			pr.patient_id,
			p.first_name || ' ' || p.last_name,
			d.first_name || ' ' || d.last_name
		FROM prescription_item i
		JOIN prescription pr ON pr.id = i.prescription_id
		JOIN patient p ON p.id = pr.patient_id
		JOIN doctor d ON d.id = pr.doctor_id
		WHERE i.status = 'pending'
		ORDER BY i.created_at
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var out []*PendingRow
	for rows.Next() {
		var pr PendingRow
		if err := rows.Scan(
			&pr.ID, &pr.PrescriptionID, &pr.DrugName, &pr.Dosage, &pr.Frequency, &pr.DurationDays,
			&pr.Quantity, &pr.Instructions, &pr.Status, &pr.DispensedBy, &pr.DispensedAt, &pr.CreatedAt,
			&pr.PatientID, &pr.PatientName, &pr.DoctorName,
		); err != nil {
			return nil, 0, apperr.Storage(err)
		}
		out = append(out, &pr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return out, total, nil
}

func scanItemFields(row pgx.Row, it *Item) error {
	return row.Scan(
		&it.ID, &it.PrescriptionID, &it.DrugName, &it.Dosage, &it.Frequency, &it.DurationDays,
		&it.Quantity, &it.Instructions, &it.Status, &it.DispensedBy, &it.DispensedAt, &it.CreatedAt,
	)
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.ConsultationID, &p.PatientID, &p.DoctorID, &p.Notes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("prescription_not_found", "prescription does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}
