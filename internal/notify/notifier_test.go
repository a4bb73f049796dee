package notify

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
)

type stubStore struct {
	db.Querier

	notifications []db.CreateNotificationParams
	domainEvents  []db.InsertDomainEventParams
}

func (s *stubStore) CreateNotification(_ context.Context, arg db.CreateNotificationParams) (db.Notification, error) {
	s.notifications = append(s.notifications, arg)
	return db.Notification{ID: pgtype.UUID{Valid: true}, Kind: arg.Kind, Title: arg.Title, Message: arg.Message}, nil
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) error {
	s.domainEvents = append(s.domainEvents, arg)
	return nil
}

func TestNotifierWritesForKnownTopics(t *testing.T) {
	store := &stubStore{}
	bus := &events.Bus{Q: store, Log: zerolog.Nop(), Notifiers: []events.Notifier{&Notifier{Q: store}}}

	err := bus.Emit(context.Background(), events.TopicOrderPaid, "order-1", map[string]any{
		"order_id": "ORD-20260831-AB12CD",
	})
	require.NoError(t, err)
	require.Len(t, store.notifications, 1)
	require.Equal(t, events.TopicOrderPaid, store.notifications[0].Kind)
	require.Contains(t, store.notifications[0].Message, "ORD-20260831-AB12CD")
}

func TestNotifierIgnoresOtherTopics(t *testing.T) {
	store := &stubStore{}
	bus := &events.Bus{Q: store, Log: zerolog.Nop(), Notifiers: []events.Notifier{&Notifier{Q: store}}}

	err := bus.Emit(context.Background(), events.TopicOrderCreated, "order-1", nil)
	require.NoError(t, err)
	require.Empty(t, store.notifications)
	require.Len(t, store.domainEvents, 1, "event is still persisted")
}

func TestNotifierCoversFeeAndPostTopics(t *testing.T) {
	store := &stubStore{}
	n := &Notifier{Q: store}

	require.NoError(t, n.Notify(context.Background(), events.Event{
		Topic: events.TopicFeePaymentCompleted, AggregateID: "fee-1", Payload: []byte(`{}`),
	}))
	require.NoError(t, n.Notify(context.Background(), events.Event{
		Topic: events.TopicPostSubmitted, AggregateID: "post-1", Payload: []byte(`{"title":"Baal Mela report"}`),
	}))
	require.Len(t, store.notifications, 2)
	require.Contains(t, store.notifications[1].Message, "Baal Mela report")
}
