package fees

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Service manages fee structures and fee payment records for schools.
type Service struct {
	Q db.Querier
}

// StructureInput describes a new fee structure for one class and fee type.
type StructureInput struct {
	ClassName    string     `json:"class_name"`
	FeeType      db.FeeType `json:"fee_type"`
	SchoolAmount int64      `json:"school_amount"`
	Installments int32      `json:"installments"`
	AcademicYear string     `json:"academic_year"`
}

// Structure is a fee structure with its derived quote.
type Structure struct {
	ID           int64      `json:"id"`
	SchoolID     int64      `json:"school_id"`
	ClassName    string     `json:"class_name"`
	FeeType      db.FeeType `json:"fee_type"`
	AcademicYear string     `json:"academic_year"`
	Active       bool       `json:"active"`
	Quote        Quote      `json:"quote"`
}

// CreateStructure computes the student-pays amount from the school's
// surcharge settings and replaces any active structure for the same class
// and fee type. A structure that already collected money is never replaced.
func (s *Service) CreateStructure(ctx context.Context, schoolID int64, in StructureInput) (Structure, error) {
	in.ClassName = strings.TrimSpace(in.ClassName)
	if in.ClassName == "" {
		return Structure{}, common.ValidationError("class name is required", nil)
	}
	if in.FeeType != db.FeeTypeMonthly && in.FeeType != db.FeeTypeRenewal {
		return Structure{}, common.ValidationError("fee type must be monthly or renewal", nil)
	}
	if strings.TrimSpace(in.AcademicYear) == "" {
		return Structure{}, common.ValidationError("academic year is required", nil)
	}

	school, err := s.Q.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return Structure{}, common.NotFound("school")
	}

	quote, err := Calculate(in.SchoolAmount, school.SurchargeBps, school.SurchargeFlat, in.Installments)
	if err != nil {
		return Structure{}, err
	}

	existing, err := s.Q.ListFeeStructures(ctx, db.ListFeeStructuresParams{SchoolID: schoolID})
	if err != nil {
		return Structure{}, fmt.Errorf("list fee structures: %w", err)
	}
	for _, fs := range existing {
		if fs.ClassName != in.ClassName || fs.FeeType != in.FeeType || fs.AcademicYear != in.AcademicYear {
			continue
		}
		paid, err := s.Q.CountCompletedFeePaymentsByStructure(ctx, pgtype.Int8{Int64: fs.ID, Valid: true})
		if err != nil {
			return Structure{}, fmt.Errorf("count fee payments: %w", err)
		}
		if paid > 0 {
			return Structure{}, common.Conflict("fee structure already has completed payments; publish it under a new academic year")
		}
	}

	if err := s.Q.SupersedeFeeStructures(ctx, db.SupersedeFeeStructuresParams{
		SchoolID:  schoolID,
		ClassName: in.ClassName,
		FeeType:   in.FeeType,
	}); err != nil {
		return Structure{}, fmt.Errorf("supersede fee structures: %w", err)
	}

	created, err := s.Q.CreateFeeStructure(ctx, db.CreateFeeStructureParams{
		SchoolID:     schoolID,
		ClassName:    in.ClassName,
		FeeType:      in.FeeType,
		SchoolAmount: quote.SchoolAmount,
		SurchargeBps: quote.SurchargeBps,
		SurchargeFix: quote.SurchargeFixed,
		StudentPays:  quote.StudentPays,
		Installments: quote.Installments,
		AcademicYear: strings.TrimSpace(in.AcademicYear),
	})
	if err != nil {
		return Structure{}, fmt.Errorf("create fee structure: %w", err)
	}
	return convertStructure(created), nil
}

// ListStructures returns the active fee structures for a school, optionally
// filtered by academic year.
func (s *Service) ListStructures(ctx context.Context, schoolID int64, academicYear string) ([]Structure, error) {
	if _, err := s.Q.GetSchoolByID(ctx, schoolID); err != nil {
		return nil, common.NotFound("school")
	}
	rows, err := s.Q.ListFeeStructures(ctx, db.ListFeeStructuresParams{
		SchoolID:     schoolID,
		AcademicYear: strings.TrimSpace(academicYear),
	})
	if err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	out := make([]Structure, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertStructure(row))
	}
	return out, nil
}

// AdHocQuote computes what a student would pay for an arbitrary amount using
// the school's current surcharge settings.
func (s *Service) AdHocQuote(ctx context.Context, schoolID, amount int64, installments int32, feeType db.FeeType) (Quote, error) {
	school, err := s.Q.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return Quote{}, common.NotFound("school")
	}
	quote, err := Calculate(amount, school.SurchargeBps, school.SurchargeFlat, installments)
	if err != nil {
		return Quote{}, err
	}
	if obs.FeeQuoteTotal != nil {
		obs.FeeQuoteTotal.WithLabelValues(string(feeType)).Inc()
	}
	return quote, nil
}

// RecordPayment creates a pending fee payment row. The payment gateway
// remains authoritative; this row feeds the school admin dashboard.
func (s *Service) RecordPayment(ctx context.Context, schoolID int64, structureID int64, studentName, method string) (db.FeePayment, error) {
	studentName = strings.TrimSpace(studentName)
	if studentName == "" {
		return db.FeePayment{}, common.ValidationError("student name is required", nil)
	}

	structure, err := s.Q.GetFeeStructureByID(ctx, structureID)
	if err != nil {
		return db.FeePayment{}, common.NotFound("fee structure")
	}
	if structure.SchoolID != schoolID {
		return db.FeePayment{}, common.NotFound("fee structure")
	}
	if !structure.Active {
		return db.FeePayment{}, common.Conflict("fee structure is no longer active")
	}

	payment, err := s.Q.CreateFeePayment(ctx, db.CreateFeePaymentParams{
		SchoolID:       schoolID,
		FeeStructureID: pgtype.Int8{Int64: structure.ID, Valid: true},
		StudentName:    studentName,
		Amount:         structure.StudentPays,
		PaymentMethod:  method,
	})
	if err != nil {
		return db.FeePayment{}, fmt.Errorf("create fee payment: %w", err)
	}
	return payment, nil
}

// ListPayments returns fee payment attempts for a school, newest first.
func (s *Service) ListPayments(ctx context.Context, schoolID int64, limit, offset int32) ([]db.FeePayment, error) {
	rows, err := s.Q.ListFeePaymentsBySchool(ctx, db.ListFeePaymentsBySchoolParams{
		SchoolID: schoolID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list fee payments: %w", err)
	}
	return rows, nil
}

func convertStructure(fs db.FeeStructure) Structure {
	perInstallment, lastInstallment := splitInstallments(fs.StudentPays, fs.Installments)
	return Structure{
		ID:           fs.ID,
		SchoolID:     fs.SchoolID,
		ClassName:    fs.ClassName,
		FeeType:      fs.FeeType,
		AcademicYear: fs.AcademicYear,
		Active:       fs.Active,
		Quote: Quote{
			SchoolAmount:    fs.SchoolAmount,
			SurchargeBps:    fs.SurchargeBps,
			SurchargeFixed:  fs.SurchargeFix,
			StudentPays:     fs.StudentPays,
			Installments:    fs.Installments,
			PerInstallment:  perInstallment,
			LastInstallment: lastInstallment,
		},
	}
}
