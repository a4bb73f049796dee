package culture

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes the public showcase and admin program management.
type Handler struct {
	Service *Service
}

// ListCategories handles GET /api/v1/culture/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// CreateCategory handles POST /api/v1/admin/culture/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	category, err := h.Service.CreateCategory(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": category})
}

// ListPrograms handles GET /api/v1/culture/programs.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64)
	programs, err := h.Service.ListPrograms(r.Context(), categoryID, page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": programs})
}

// GetProgram handles GET /api/v1/culture/programs/{programID}.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "programID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	program, err := h.Service.GetProgram(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": program})
}

// CreateProgram handles POST /api/v1/admin/culture/programs.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var in ProgramInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	program, err := h.Service.CreateProgram(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": program})
}

// UpdateProgram handles PUT /api/v1/admin/culture/programs/{programID}.
func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "programID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in ProgramInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	program, err := h.Service.UpdateProgram(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": program})
}

// DeleteProgram handles DELETE /api/v1/admin/culture/programs/{programID}.
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := common.IntParam(r, "programID")
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Service.DeleteProgram(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
