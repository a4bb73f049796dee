package fees

import (
	"github.com/prayas-foundation/prayas-api/internal/common"
)

// All money moves through the gateways in paise, so the calculator works in
// paise too. The student total is rounded up to the next whole rupee (100
// paise); receipts and installments never carry paisa fractions.
const paisePerRupee = 100

// Quote is the surcharge arithmetic for one fee structure. Amounts are in
// paise; the surcharge percentage is carried in basis points so the
// computation stays in integers.
type Quote struct {
	SchoolAmount    int64 `json:"school_amount"`
	SurchargeBps    int32 `json:"surcharge_bps"`
	SurchargeFixed  int64 `json:"surcharge_fixed"`
	StudentPays     int64 `json:"student_pays"`
	Installments    int32 `json:"installments"`
	PerInstallment  int64 `json:"per_installment"`
	LastInstallment int64 `json:"last_installment"`
}

// Calculate derives what the student pays for a given school amount. The
// school always receives its amount in full; the surcharge is added on top
// and the total rounded up to the next rupee.
func Calculate(schoolAmount int64, surchargeBps int32, surchargeFixed int64, installments int32) (Quote, error) {
	if schoolAmount <= 0 {
		return Quote{}, common.ValidationError("school amount must be positive", nil)
	}
	if surchargeBps < 0 || surchargeFixed < 0 {
		return Quote{}, common.ValidationError("surcharge must not be negative", nil)
	}
	if installments < 1 {
		return Quote{}, common.ValidationError("installments must be at least 1", nil)
	}

	raw := ceilDiv(schoolAmount*int64(10000+surchargeBps), 10000) + surchargeFixed
	studentPays := ceilDiv(raw, paisePerRupee) * paisePerRupee
	if int64(installments) > studentPays/paisePerRupee {
		return Quote{}, common.ValidationError("too many installments for this amount", nil)
	}
	perInstallment, lastInstallment := splitInstallments(studentPays, installments)

	return Quote{
		SchoolAmount:    schoolAmount,
		SurchargeBps:    surchargeBps,
		SurchargeFixed:  surchargeFixed,
		StudentPays:     studentPays,
		Installments:    installments,
		PerInstallment:  perInstallment,
		LastInstallment: lastInstallment,
	}, nil
}

// splitInstallments divides a whole-rupee total into equal whole-rupee
// installments, the last one absorbing the rounding remainder.
func splitInstallments(studentPays int64, installments int32) (per, last int64) {
	if installments <= 1 {
		return studentPays, studentPays
	}
	rupees := ceilDiv(studentPays, paisePerRupee)
	per = ceilDiv(rupees, int64(installments)) * paisePerRupee
	last = studentPays - per*int64(installments-1)
	return per, last
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
