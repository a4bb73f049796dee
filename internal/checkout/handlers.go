package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the checkout endpoint. Routing wraps it with the
// Idempotency-Key middleware so retried POSTs cannot create two orders.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/checkout.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.RenderError(w, common.Unauthorized("missing or invalid token"))
		return
	}
	userID, err := common.ParseUUID(raw)
	if err != nil {
		common.RenderError(w, common.Unauthorized("missing or invalid token"))
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	out, err := h.Service.Create(r.Context(), userID, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
