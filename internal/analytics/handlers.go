package analytics

import (
	"net/http"
	"strconv"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the admin analytics endpoints.
type Handler struct {
	Service *Service
}

// Overview handles GET /api/v1/admin/analytics/overview.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Overview(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopBooks handles GET /api/v1/admin/analytics/top-books.
func (h *Handler) TopBooks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 32)
	out, err := h.Service.TopBooks(r.Context(), int32(limit))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// FeeCollection handles GET /api/v1/admin/analytics/fee-collection.
func (h *Handler) FeeCollection(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.FeeCollectionBySchool(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}
