package events

// Topics for domain events recorded in the outbox table. Subscribers key off
// these strings, so renaming one is a breaking change for stored rows too.
const (
	TopicOrderCreated        = "order.created"
	TopicOrderPaid           = "order.paid"
	TopicPaymentFailed       = "payment.failed"
	TopicPaymentRefunded     = "payment.refunded"
	TopicFeePaymentCompleted = "fee_payment.completed"
	TopicPostSubmitted       = "post.submitted"
	TopicPostApproved        = "post.approved"
	TopicBookLowStock        = "book.low_stock"
)
