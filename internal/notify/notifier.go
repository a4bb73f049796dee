package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Notifier turns domain events into admin dashboard notifications. It is
// registered on the event bus; topics it does not care about are ignored.
type Notifier struct {
	Q db.Querier
}

// Notify implements events.Notifier.
func (n *Notifier) Notify(ctx context.Context, ev events.Event) error {
	var payload map[string]any
	_ = json.Unmarshal(ev.Payload, &payload)

	var title, message string
	switch ev.Topic {
	case events.TopicOrderPaid:
		title = "Order paid"
		message = fmt.Sprintf("Order %s was paid.", stringField(payload, "order_id", ev.AggregateID))
	case events.TopicFeePaymentCompleted:
		title = "Fee payment received"
		message = fmt.Sprintf("Fee payment %s completed.", ev.AggregateID)
	case events.TopicPaymentFailed:
		title = "Payment failed"
		message = fmt.Sprintf("A %s payment failed.", stringField(payload, "payment_type", "gateway"))
	case events.TopicPaymentRefunded:
		title = "Payment refunded"
		message = fmt.Sprintf("A %s payment was refunded.", stringField(payload, "payment_type", "gateway"))
	case events.TopicPostSubmitted:
		title = "Post awaiting moderation"
		message = fmt.Sprintf("New community post: %s", stringField(payload, "title", ev.AggregateID))
	case events.TopicBookLowStock:
		title = "Book low on stock"
		message = fmt.Sprintf("Book %s is running low.", stringField(payload, "title", ev.AggregateID))
	default:
		return nil
	}

	if _, err := n.Q.CreateNotification(ctx, db.CreateNotificationParams{
		Kind:    ev.Topic,
		Title:   title,
		Message: message,
	}); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	if obs.NotificationsEmitted != nil {
		obs.NotificationsEmitted.Inc()
	}
	return nil
}

func stringField(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
