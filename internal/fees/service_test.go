package fees

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	school     db.School
	structures []db.FeeStructure
	payments   []db.FeePayment
	completed  map[int64]int64
	nextID     int64
}

func newStubStore() *stubStore {
	return &stubStore{
		school: db.School{
			ID:           1,
			Name:         "Gyan Vidya Mandir",
			SurchargeBps: 236,
		},
		completed: map[int64]int64{},
		nextID:    1,
	}
}

func (s *stubStore) GetSchoolByID(_ context.Context, id int64) (db.School, error) {
	if id != s.school.ID {
		return db.School{}, pgx.ErrNoRows
	}
	return s.school, nil
}

func (s *stubStore) ListFeeStructures(_ context.Context, arg db.ListFeeStructuresParams) ([]db.FeeStructure, error) {
	var out []db.FeeStructure
	for _, fs := range s.structures {
		if fs.SchoolID != arg.SchoolID || !fs.Active {
			continue
		}
		if arg.AcademicYear != "" && fs.AcademicYear != arg.AcademicYear {
			continue
		}
		out = append(out, fs)
	}
	return out, nil
}

func (s *stubStore) GetFeeStructureByID(_ context.Context, id int64) (db.FeeStructure, error) {
	for _, fs := range s.structures {
		if fs.ID == id {
			return fs, nil
		}
	}
	return db.FeeStructure{}, pgx.ErrNoRows
}

func (s *stubStore) CreateFeeStructure(_ context.Context, arg db.CreateFeeStructureParams) (db.FeeStructure, error) {
	fs := db.FeeStructure{
		ID:           s.nextID,
		SchoolID:     arg.SchoolID,
		ClassName:    arg.ClassName,
		FeeType:      arg.FeeType,
		SchoolAmount: arg.SchoolAmount,
		SurchargeBps: arg.SurchargeBps,
		SurchargeFix: arg.SurchargeFix,
		StudentPays:  arg.StudentPays,
		Installments: arg.Installments,
		AcademicYear: arg.AcademicYear,
		Active:       true,
	}
	s.nextID++
	s.structures = append(s.structures, fs)
	return fs, nil
}

func (s *stubStore) SupersedeFeeStructures(_ context.Context, arg db.SupersedeFeeStructuresParams) error {
	for i, fs := range s.structures {
		if fs.SchoolID == arg.SchoolID && fs.ClassName == arg.ClassName && fs.FeeType == arg.FeeType {
			s.structures[i].Active = false
		}
	}
	return nil
}

func (s *stubStore) CountCompletedFeePaymentsByStructure(_ context.Context, id pgtype.Int8) (int64, error) {
	return s.completed[id.Int64], nil
}

func (s *stubStore) CreateFeePayment(_ context.Context, arg db.CreateFeePaymentParams) (db.FeePayment, error) {
	p := db.FeePayment{
		SchoolID:       arg.SchoolID,
		FeeStructureID: arg.FeeStructureID,
		StudentName:    arg.StudentName,
		Amount:         arg.Amount,
		PaymentMethod:  arg.PaymentMethod,
		Status:         db.PaymentStatusPending,
	}
	s.payments = append(s.payments, p)
	return p, nil
}

func TestCreateStructureComputesStudentPays(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	created, err := svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName:    "Class 5",
		FeeType:      db.FeeTypeMonthly,
		SchoolAmount: 350000,
		Installments: 1,
		AcademicYear: "2026-27",
	})
	require.NoError(t, err)
	require.Equal(t, int64(358300), created.Quote.StudentPays)
	require.True(t, created.Active)
}

func TestCreateStructureSupersedesPrior(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	_, err := svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 350000,
		Installments: 1, AcademicYear: "2025-26",
	})
	require.NoError(t, err)

	_, err = svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 370000,
		Installments: 1, AcademicYear: "2026-27",
	})
	require.NoError(t, err)

	active, err := svc.ListStructures(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "2026-27", active[0].AcademicYear)
}

func TestCreateStructureRejectsReplacingPaidStructure(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	created, err := svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 350000,
		Installments: 1, AcademicYear: "2026-27",
	})
	require.NoError(t, err)
	store.completed[created.ID] = 2

	_, err = svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 360000,
		Installments: 1, AcademicYear: "2026-27",
	})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeConflict, appErr.Code)
}

func TestRecordPaymentUsesStructureAmount(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	created, err := svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 460000,
		Installments: 3, AcademicYear: "2026-27",
	})
	require.NoError(t, err)

	payment, err := svc.RecordPayment(context.Background(), 1, created.ID, "Ravi Kumar", "upi")
	require.NoError(t, err)
	require.Equal(t, int64(470900), payment.Amount)
	require.Equal(t, db.PaymentStatusPending, payment.Status)
}

func TestRecordPaymentRejectsInactiveStructure(t *testing.T) {
	store := newStubStore()
	svc := &Service{Q: store}

	old, err := svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 350000,
		Installments: 1, AcademicYear: "2025-26",
	})
	require.NoError(t, err)

	_, err = svc.CreateStructure(context.Background(), 1, StructureInput{
		ClassName: "Class 5", FeeType: db.FeeTypeMonthly, SchoolAmount: 370000,
		Installments: 1, AcademicYear: "2026-27",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), 1, old.ID, "Ravi Kumar", "upi")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeConflict, appErr.Code)
}
