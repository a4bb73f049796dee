package authz

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Handler exposes the admin endpoint for granting roles and resource scopes.
type Handler struct {
	Gate *Gate
}

type updatePermissionsRequest struct {
	Role               string  `json:"role"`
	SchoolPermissions  []int64 `json:"school_permissions"`
	CulturePermissions []int64 `json:"culture_permissions"`
}

var validRoles = []string{roleUser, roleSchoolAdmin, roleCultureAdmin, roleAdmin}

// UpdatePermissions handles PUT /api/v1/admin/users/{userID}/permissions.
func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	targetID, err := common.ParseUUID(chi.URLParam(r, "userID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}

	var req updatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RenderError(w, common.ValidationError("invalid request payload", nil))
		return
	}
	if !slices.Contains(validRoles, req.Role) {
		common.RenderError(w, common.ValidationError("unknown role", map[string]any{"role": req.Role}))
		return
	}

	if _, err := h.Gate.Q.GetUserByID(r.Context(), targetID); err != nil {
		common.RenderError(w, common.NotFound("user"))
		return
	}

	if err := h.Gate.Q.UpdateUserPermissions(r.Context(), db.UpdateUserPermissionsParams{
		ID:                 targetID,
		Role:               req.Role,
		SchoolPermissions:  req.SchoolPermissions,
		CulturePermissions: req.CulturePermissions,
	}); err != nil {
		common.RenderError(w, common.Internal(err))
		return
	}

	// Existing tokens carry the old role claim until they expire, so force a
	// fresh login instead of letting stale sessions ride out their TTL.
	if err := h.Gate.Q.DeleteSessionsByUser(r.Context(), targetID); err != nil {
		common.RenderError(w, common.Internal(err))
		return
	}

	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"id":                  common.UUIDString(targetID),
			"role":                req.Role,
			"school_permissions":  req.SchoolPermissions,
			"culture_permissions": req.CulturePermissions,
		},
	})
}
