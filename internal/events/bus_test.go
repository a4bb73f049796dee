package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	inserted  []db.InsertDomainEventParams
	insertErr error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, arg)
	return nil
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Q: store, Log: zerolog.Nop(), Notifiers: []Notifier{notifier}}

	err := bus.Emit(context.Background(), TopicOrderCreated, "order-1", map[string]any{"total": 500})
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	require.Equal(t, TopicOrderCreated, store.inserted[0].Topic)
	require.JSONEq(t, `{"total":500}`, string(store.inserted[0].Payload))
	require.Len(t, notifier.events, 1)
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &Bus{Q: &stubStore{}, Log: zerolog.Nop()}

	require.Error(t, bus.Emit(context.Background(), "", "order-1", nil))
	require.Error(t, bus.Emit(context.Background(), TopicOrderPaid, "  ", nil))
}

func TestEmitSkipsNotifiersWhenPersistFails(t *testing.T) {
	store := &stubStore{insertErr: errors.New("db down")}
	notifier := &recordingNotifier{}
	bus := &Bus{Q: store, Log: zerolog.Nop(), Notifiers: []Notifier{notifier}}

	err := bus.Emit(context.Background(), TopicOrderPaid, "order-1", nil)
	require.Error(t, err)
	require.Empty(t, notifier.events)
}

func TestEmitReportsNotifierFailureAfterPersist(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	bus := &Bus{Q: store, Log: zerolog.Nop(), Notifiers: []Notifier{notifier}}

	err := bus.Emit(context.Background(), TopicPostSubmitted, "post-1", []byte(`{"title":"x"}`))
	require.Error(t, err)
	require.Len(t, store.inserted, 1, "event is persisted before fan-out")
}
