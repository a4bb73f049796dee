package posts

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the community post endpoints.
type Handler struct {
	Service *Service
}

// ListApproved handles GET /api/v1/posts.
func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Service.ListApproved(r.Context(), r.URL.Query().Get("category"), page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Submit handles POST /api/v1/posts.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	post, err := h.Service.Submit(r.Context(), userID, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": post})
}

// ListMine handles GET /api/v1/posts/mine.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Service.ListMine(r.Context(), userID, page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Delete handles DELETE /api/v1/posts/{postID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, err := common.ParseUUID(chi.URLParam(r, "postID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), userID, postID); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQueue handles GET /api/v1/admin/posts.
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	out, err := h.Service.ListQueue(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Moderate handles POST /api/v1/admin/posts/{postID}/moderate.
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	postID, err := common.ParseUUID(chi.URLParam(r, "postID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in ModerateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	post, err := h.Service.Moderate(r.Context(), postID, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": post})
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
