package notify

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Notification is the API representation of a dashboard notification.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Handler exposes the admin notification endpoints.
type Handler struct {
	Q db.Querier
}

// List handles GET /api/v1/admin/notifications. ?unread=true narrows to
// unread rows.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Q.ListNotifications(r.Context(), db.ListNotificationsParams{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      int32(perPage),
		Offset:     common.Offset(page, perPage),
	})
	if err != nil {
		common.RenderError(w, fmt.Errorf("list notifications: %w", err))
		return
	}
	out := make([]Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertNotification(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// UnreadCount handles GET /api/v1/admin/notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Q.CountUnreadNotifications(r.Context())
	if err != nil {
		common.RenderError(w, fmt.Errorf("count unread notifications: %w", err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int64{"unread": count}})
}

// MarkRead handles POST /api/v1/admin/notifications/{notificationID}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseUUID(chi.URLParam(r, "notificationID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	affected, err := h.Q.MarkNotificationRead(r.Context(), id)
	if err != nil {
		common.RenderError(w, fmt.Errorf("mark notification read: %w", err))
		return
	}
	if affected == 0 {
		common.RenderError(w, common.NotFound("notification"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/admin/notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Q.MarkAllNotificationsRead(r.Context()); err != nil {
		common.RenderError(w, fmt.Errorf("mark all notifications read: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func convertNotification(row db.Notification) Notification {
	out := Notification{
		ID:      common.UUIDString(row.ID),
		Kind:    row.Kind,
		Title:   row.Title,
		Message: row.Message,
		IsRead:  row.IsRead,
	}
	if row.CreatedAt.Valid {
		out.CreatedAt = row.CreatedAt.Time
	}
	return out
}
