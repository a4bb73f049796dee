package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const feeStructureColumns = `id, school_id, class_name, fee_type, school_amount,
	surcharge_bps, surcharge_fixed, student_pays, installments, academic_year,
	active, created_at`

type ListFeeStructuresParams struct {
	SchoolID     int64
	AcademicYear string
}

func (q *Queries) ListFeeStructures(ctx context.Context, arg ListFeeStructuresParams) ([]FeeStructure, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+feeStructureColumns+` FROM fee_structures
		WHERE school_id = $1 AND ($2 = '' OR academic_year = $2) AND active
		ORDER BY class_name, fee_type`, arg.SchoolID, arg.AcademicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var fees []FeeStructure
	for rows.Next() {
		f, err := scanFeeStructure(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (q *Queries) GetFeeStructureByID(ctx context.Context, id int64) (FeeStructure, error) {
	row := q.db.QueryRow(ctx, `SELECT `+feeStructureColumns+` FROM fee_structures WHERE id = $1`, id)
	return scanFeeStructure(row)
}

type CreateFeeStructureParams struct {
	SchoolID     int64
	ClassName    string
	FeeType      FeeType
	SchoolAmount int64
	SurchargeBps int32
	SurchargeFix int64
	StudentPays  int64
	Installments int32
	AcademicYear string
}

func (q *Queries) CreateFeeStructure(ctx context.Context, arg CreateFeeStructureParams) (FeeStructure, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO fee_structures (school_id, class_name, fee_type, school_amount,
		                            surcharge_bps, surcharge_fixed, student_pays,
		                            installments, academic_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+feeStructureColumns,
		arg.SchoolID, arg.ClassName, arg.FeeType, arg.SchoolAmount, arg.SurchargeBps,
		arg.SurchargeFix, arg.StudentPays, arg.Installments, arg.AcademicYear)
	return scanFeeStructure(row)
}

type SupersedeFeeStructuresParams struct {
	SchoolID  int64
	ClassName string
	FeeType   FeeType
}

// SupersedeFeeStructures deactivates prior rows for the same class/type so a
// replacement row can take over without mutating history.
func (q *Queries) SupersedeFeeStructures(ctx context.Context, arg SupersedeFeeStructuresParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE fee_structures SET active = false
		WHERE school_id = $1 AND class_name = $2 AND fee_type = $3 AND active`,
		arg.SchoolID, arg.ClassName, arg.FeeType)
	return err
}

const feePaymentColumns = `id, school_id, fee_structure_id, student_name, amount,
	payment_method, status, created_at, updated_at`

type CreateFeePaymentParams struct {
	SchoolID       int64
	FeeStructureID pgtype.Int8
	StudentName    string
	Amount         int64
	PaymentMethod  string
}

func (q *Queries) CreateFeePayment(ctx context.Context, arg CreateFeePaymentParams) (FeePayment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO fee_payments (school_id, fee_structure_id, student_name, amount, payment_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+feePaymentColumns,
		arg.SchoolID, arg.FeeStructureID, arg.StudentName, arg.Amount, arg.PaymentMethod)
	return scanFeePayment(row)
}

func (q *Queries) GetFeePaymentByID(ctx context.Context, id pgtype.UUID) (FeePayment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+feePaymentColumns+` FROM fee_payments WHERE id = $1`, id)
	return scanFeePayment(row)
}

type UpdateFeePaymentStatusParams struct {
	ID     pgtype.UUID
	Status PaymentStatus
}

func (q *Queries) UpdateFeePaymentStatus(ctx context.Context, arg UpdateFeePaymentStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE fee_payments SET status = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Status)
	return err
}

type ListFeePaymentsBySchoolParams struct {
	SchoolID int64
	Limit    int32
	Offset   int32
}

func (q *Queries) ListFeePaymentsBySchool(ctx context.Context, arg ListFeePaymentsBySchoolParams) ([]FeePayment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+feePaymentColumns+` FROM fee_payments
		WHERE school_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg.SchoolID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []FeePayment
	for rows.Next() {
		p, err := scanFeePayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// CountCompletedFeePaymentsByStructure guards fee-structure immutability once
// money has moved against it.
func (q *Queries) CountCompletedFeePaymentsByStructure(ctx context.Context, feeStructureID pgtype.Int8) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM fee_payments
		WHERE fee_structure_id = $1 AND status = 'completed'`, feeStructureID).Scan(&total)
	return total, err
}

func scanFeeStructure(row rowScanner) (FeeStructure, error) {
	var f FeeStructure
	err := row.Scan(&f.ID, &f.SchoolID, &f.ClassName, &f.FeeType, &f.SchoolAmount,
		&f.SurchargeBps, &f.SurchargeFix, &f.StudentPays, &f.Installments,
		&f.AcademicYear, &f.Active, &f.CreatedAt)
	return f, err
}

func scanFeePayment(row rowScanner) (FeePayment, error) {
	var p FeePayment
	err := row.Scan(&p.ID, &p.SchoolID, &p.FeeStructureID, &p.StudentName, &p.Amount,
		&p.PaymentMethod, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
