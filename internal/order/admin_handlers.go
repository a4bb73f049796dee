package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// AdminHandler exposes order fulfilment endpoints for back-office staff.
type AdminHandler struct {
	Service *Service
}

type statusRequest struct {
	Status string `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

// Get handles GET /api/v1/admin/orders/{orderID}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out, err := h.Service.Get(r.Context(), orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{orderID}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	out, err := h.Service.UpdateStatus(r.Context(), orderID, db.OrderStatus(req.Status))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Cancel handles POST /api/v1/admin/orders/{orderID}/cancel.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	out, err := h.Service.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// SetTracking handles PUT /api/v1/admin/orders/{orderID}/tracking.
func (h *AdminHandler) SetTracking(w http.ResponseWriter, r *http.Request) {
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	out, err := h.Service.SetTracking(r.Context(), orderID, req.TrackingNumber)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
