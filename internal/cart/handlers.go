package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the authenticated cart endpoints.
type Handler struct {
	Service *Service
}

type addRequest struct {
	BookID string `json:"book_id"`
	Qty    int32  `json:"qty"`
}

type qtyRequest struct {
	Qty int32 `json:"qty"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Add handles POST /api/v1/cart/items.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	bookID, err := common.ParseUUID(req.BookID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	view, err := h.Service.Add(r.Context(), userID, bookID, req.Qty)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdateQty handles PATCH /api/v1/cart/items/{itemID}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := common.ParseUUID(chi.URLParam(r, "itemID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var req qtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	view, err := h.Service.UpdateQty(r.Context(), userID, itemID, req.Qty)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Remove handles DELETE /api/v1/cart/items/{itemID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := common.ParseUUID(chi.URLParam(r, "itemID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	view, err := h.Service.Remove(r.Context(), userID, itemID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Clear handles DELETE /api/v1/cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Clear(r.Context(), userID); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
