package payment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the authenticated payment endpoints. Routing wraps
// CreateIntent with the Idempotency-Key middleware.
type Handler struct {
	Service *Service
}

// CreateIntent handles POST /api/v1/payments/create-intent.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in IntentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	intent, err := h.Service.CreateIntent(r.Context(), userID, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": intent})
}

// StatusForOrder handles GET /api/v1/payments/{orderID}/status.
func (h *Handler) StatusForOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := common.ParseUUID(chi.URLParam(r, "orderID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	status, err := h.Service.StatusForOrder(r.Context(), userID, orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": status}})
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
