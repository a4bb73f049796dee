package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/db"
)

type listStore struct {
	db.Querier

	rows     []db.DomainEvent
	lastArgs db.ListDomainEventsParams
}

func (s *listStore) ListDomainEvents(_ context.Context, arg db.ListDomainEventsParams) ([]db.DomainEvent, error) {
	s.lastArgs = arg
	if arg.Topic == "" {
		return s.rows, nil
	}
	var filtered []db.DomainEvent
	for _, row := range s.rows {
		if row.Topic == arg.Topic {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func domainEvent(topic string) db.DomainEvent {
	return db.DomainEvent{
		ID:          pgtype.UUID{Bytes: [16]byte{0x01}, Valid: true},
		Topic:       topic,
		AggregateID: "order-1",
		Payload:     []byte(`{"total":500}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
}

func TestListReturnsEvents(t *testing.T) {
	store := &listStore{rows: []db.DomainEvent{domainEvent(TopicOrderCreated), domainEvent(TopicOrderPaid)}}
	h := &Handler{Q: store}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, TopicOrderCreated, body.Data[0].Topic)
	require.JSONEq(t, `{"total":500}`, string(body.Data[0].Payload))
}

func TestListFiltersByTopicAndPaginates(t *testing.T) {
	store := &listStore{rows: []db.DomainEvent{domainEvent(TopicOrderCreated), domainEvent(TopicOrderPaid)}}
	h := &Handler{Q: store}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/admin/events?topic=order.paid&page=2&limit=20", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, TopicOrderPaid, store.lastArgs.Topic)
	require.Equal(t, int32(20), store.lastArgs.Limit)
	require.Equal(t, int32(20), store.lastArgs.Offset)

	var body struct {
		Data []Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
}
