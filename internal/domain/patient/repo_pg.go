package patient

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

const patientCols = `id, mrn, first_name, last_name, birth_date, gender, blood_group,
	phone, email, address_line1, address_line2, city, postal_code,
	emergency_contact, emergency_phone, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	// MRN comes from the mrn_seq sequence default.
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			id, first_name, last_name, birth_date, gender, blood_group,
			phone, email, address_line1, address_line2, city, postal_code,
			emergency_contact, emergency_phone
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING mrn, created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.BloodGroup,
		p.Phone, p.Email, p.AddressLine1, p.AddressLine2, p.City, p.PostalCode,
		p.EmergencyContact, p.EmergencyPhone,
	).Scan(&p.MRN, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE mrn = $1`, mrn))
}

func (r *repoPG) UpdateContact(ctx context.Context, id uuid.UUID, upd ContactUpdate) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			phone = COALESCE($2, phone),
			email = COALESCE($3, email),
			address_line1 = COALESCE($4, address_line1),
			address_line2 = COALESCE($5, address_line2),
			city = COALESCE($6, city),
			postal_code = COALESCE($7, postal_code),
			emergency_contact = COALESCE($8, emergency_contact),
			emergency_phone = COALESCE($9, emergency_phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+patientCols,
		id, upd.Phone, upd.Email, upd.AddressLine1, upd.AddressLine2,
		upd.City, upd.PostalCode, upd.EmergencyContact, upd.EmergencyPhone,
	))
}

func (r *repoPG) List(ctx context.Context, nameFilter string, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE ($1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR mrn = $1)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient `+where, nameFilter).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient `+where+
			` ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		nameFilter, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(
			&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.BloodGroup,
			&p.Phone, &p.Email, &p.AddressLine1, &p.AddressLine2, &p.City, &p.PostalCode,
			&p.EmergencyContact, &p.EmergencyPhone, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, apperr.Storage(err)
		}
		patients = append(patients, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return patients, total, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.BloodGroup,
		&p.Phone, &p.Email, &p.AddressLine1, &p.AddressLine2, &p.City, &p.PostalCode,
		&p.EmergencyContact, &p.EmergencyPhone, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient_not_found", "patient does not exist")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}
