package fees

import (
	"encoding/json"
	"net/http"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Handler exposes fee structure and fee payment endpoints.
type Handler struct {
	Service *Service
}

// ListStructures handles GET /api/v1/schools/{schoolID}/fees.
func (h *Handler) ListStructures(w http.ResponseWriter, r *http.Request) {
	schoolID, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	structures, err := h.Service.ListStructures(r.Context(), schoolID, r.URL.Query().Get("academic_year"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": structures})
}

type quoteRequest struct {
	Amount       int64      `json:"amount"`
	Installments int32      `json:"installments"`
	FeeType      db.FeeType `json:"fee_type"`
}

// Quote handles POST /api/v1/schools/{schoolID}/fees/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	schoolID, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	if req.Installments == 0 {
		req.Installments = 1
	}
	quote, err := h.Service.AdHocQuote(r.Context(), schoolID, req.Amount, req.Installments, req.FeeType)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// CreateStructure handles POST /api/v1/admin/schools/{schoolID}/fees.
func (h *Handler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	schoolID, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in StructureInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	if in.Installments == 0 {
		in.Installments = 1
	}
	structure, err := h.Service.CreateStructure(r.Context(), schoolID, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": structure})
}

type recordPaymentRequest struct {
	FeeStructureID int64  `json:"fee_structure_id"`
	StudentName    string `json:"student_name"`
	PaymentMethod  string `json:"payment_method"`
}

// RecordPayment handles POST /api/v1/schools/{schoolID}/fee-payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	schoolID, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	payment, err := h.Service.RecordPayment(r.Context(), schoolID, req.FeeStructureID, req.StudentName, req.PaymentMethod)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"id":           common.UUIDString(payment.ID),
		"school_id":    payment.SchoolID,
		"student_name": payment.StudentName,
		"amount":       payment.Amount,
		"status":       payment.Status,
	}})
}

// ListPayments handles GET /api/v1/admin/schools/{schoolID}/fee-payments.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	schoolID, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	payments, err := h.Service.ListPayments(r.Context(), schoolID, int32(perPage), common.Offset(page, perPage))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		out = append(out, map[string]any{
			"id":               common.UUIDString(p.ID),
			"fee_structure_id": p.FeeStructureID.Int64,
			"student_name":     p.StudentName,
			"amount":           p.Amount,
			"payment_method":   p.PaymentMethod,
			"status":           p.Status,
			"created_at":       p.CreatedAt.Time,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: int64(len(out))},
	})
}
