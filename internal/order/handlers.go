package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the authenticated order history endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	result, err := h.Service.ListForUser(r.Context(), userID, page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result.Orders, "meta": result.Meta})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out, err := h.Service.GetForUser(r.Context(), userID, orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Cancel handles POST /api/v1/orders/{orderID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
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
	out, err := h.Service.CancelForUser(r.Context(), userID, orderID, req.Reason)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func currentUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.RenderError(w, common.Unauthorized("missing or invalid token"))
		return pgtype.UUID{}, false
	}
	id, err := common.ParseUUID(raw)
	if err != nil {
		common.RenderError(w, common.Unauthorized("missing or invalid token"))
		return pgtype.UUID{}, false
	}
	return id, true
}
