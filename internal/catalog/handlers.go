package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prayas-foundation/prayas-api/internal/common"
)

// Handler exposes public catalog and admin book management endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/books.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	result, err := h.Service.List(r.Context(), ListParams{
		Search:  r.URL.Query().Get("search"),
		Genre:   r.URL.Query().Get("genre"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result.Books, "meta": result.Meta})
}

// Get handles GET /api/v1/books/{bookID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseUUID(chi.URLParam(r, "bookID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	book, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": book})
}

// Create handles POST /api/v1/admin/books.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	book, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": book})
}

// Update handles PUT /api/v1/admin/books/{bookID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseUUID(chi.URLParam(r, "bookID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	var in BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	book, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": book})
}

// Delete handles DELETE /api/v1/admin/books/{bookID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseUUID(chi.URLParam(r, "bookID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LowStock handles GET /api/v1/admin/books/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	books, err := h.Service.LowStock(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": books})
}
