package db

import (
	"context"
)

type InsertDomainEventParams struct {
	Topic       string
	AggregateID string
	Payload     []byte
}

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)`,
		arg.Topic, arg.AggregateID, arg.Payload)
	return err
}

type ListDomainEventsParams struct {
	Topic  string
	Limit  int32
	Offset int32
}

func (q *Queries) ListDomainEvents(ctx context.Context, arg ListDomainEventsParams) ([]DomainEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, topic, aggregate_id, payload, occurred_at
		FROM domain_events
		WHERE ($1 = '' OR topic = $1)
		ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`,
		arg.Topic, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
