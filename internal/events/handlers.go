package events

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Record is the API shape of a persisted domain event.
type Record struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Handler exposes the admin audit feed over stored domain events.
type Handler struct {
	Q db.Querier
}

// List handles GET /api/v1/admin/events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	page, perPage := common.ParsePagination(r, 50)

	rows, err := h.Q.ListDomainEvents(r.Context(), db.ListDomainEventsParams{
		Topic:  topic,
		Limit:  int32(perPage),
		Offset: common.Offset(page, perPage),
	})
	if err != nil {
		common.RenderError(w, common.Internal(err))
		return
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ID:          common.UUIDString(row.ID),
			Topic:       row.Topic,
			AggregateID: row.AggregateID,
			Payload:     json.RawMessage(row.Payload),
			OccurredAt:  row.OccurredAt.Time,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": records})
}
