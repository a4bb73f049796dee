package school

import (
	"encoding/json"
	"net/http"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the public directory and admin school management.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/schools.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	schools, err := h.Service.List(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": schools})
}

// Get handles GET /api/v1/schools/{schoolID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	school, err := h.Service.Get(r.Context(), id, false)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": school})
}

// AdminGet handles GET /api/v1/admin/schools/{schoolID} and includes the
// payment settings block.
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	school, err := h.Service.Get(r.Context(), id, true)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": school})
}

// Create handles POST /api/v1/admin/schools.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	school, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": school})
}

// Update handles PUT /api/v1/admin/schools/{schoolID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	school, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": school})
}

// UpdatePaymentSettings handles PUT /api/v1/admin/schools/{schoolID}/payment-settings.
func (h *Handler) UpdatePaymentSettings(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "schoolID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in PaymentSettingsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	school, err := h.Service.UpdatePaymentSettings(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": school})
}
