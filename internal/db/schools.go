package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const schoolColumns = `id, name, slug, description, address, contact_email, contact_phone,
	surcharge_bps, surcharge_flat, gateway_ref, created_at, updated_at`

func (q *Queries) ListSchools(ctx context.Context) ([]School, error) {
	rows, err := q.db.Query(ctx, `SELECT `+schoolColumns+` FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var schools []School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, err
		}
		schools = append(schools, s)
	}
	return schools, rows.Err()
}

func (q *Queries) GetSchoolByID(ctx context.Context, id int64) (School, error) {
	row := q.db.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id)
	return scanSchool(row)
}

type CreateSchoolParams struct {
	Name         string
	Slug         string
	Description  pgtype.Text
	Address      pgtype.Text
	ContactEmail pgtype.Text
	ContactPhone pgtype.Text
}

func (q *Queries) CreateSchool(ctx context.Context, arg CreateSchoolParams) (School, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO schools (name, slug, description, address, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+schoolColumns,
		arg.Name, arg.Slug, arg.Description, arg.Address, arg.ContactEmail, arg.ContactPhone)
	return scanSchool(row)
}

type UpdateSchoolParams struct {
	ID           int64
	Name         string
	Description  pgtype.Text
	Address      pgtype.Text
	ContactEmail pgtype.Text
	ContactPhone pgtype.Text
}

func (q *Queries) UpdateSchool(ctx context.Context, arg UpdateSchoolParams) (School, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE schools
		SET name = $2, description = $3, address = $4, contact_email = $5,
		    contact_phone = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+schoolColumns,
		arg.ID, arg.Name, arg.Description, arg.Address, arg.ContactEmail, arg.ContactPhone)
	return scanSchool(row)
}

type UpdateSchoolPaymentSettingsParams struct {
	ID            int64
	SurchargeBps  int32
	SurchargeFlat int64
	GatewayRef    pgtype.Text
}

func (q *Queries) UpdateSchoolPaymentSettings(ctx context.Context, arg UpdateSchoolPaymentSettingsParams) (School, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE schools
		SET surcharge_bps = $2, surcharge_flat = $3, gateway_ref = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+schoolColumns,
		arg.ID, arg.SurchargeBps, arg.SurchargeFlat, arg.GatewayRef)
	return scanSchool(row)
}

func scanSchool(row rowScanner) (School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Description, &s.Address, &s.ContactEmail,
		&s.ContactPhone, &s.SurchargeBps, &s.SurchargeFlat, &s.GatewayRef,
		&s.CreatedAt, &s.UpdatedAt)
	return s, err
}
