package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Webhook processes gateway callbacks: signature verification, replay
// protection, settlement of the referenced payment context.
type Webhook struct {
	Q         db.Querier
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Events    *events.Bus
	Log       zerolog.Logger

	// SubscriptionExtension is how much paid time one subscription payment
	// buys. Zero means one year.
	SubscriptionExtension time.Duration
}

// Handle processes POST /api/v1/webhooks/payment/{gateway}.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	gateway := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "gateway")))
	provider, ok := h.Providers[gateway]
	if !ok {
		h.count(gateway, "unknown_gateway")
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "unknown gateway", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.count(gateway, "bad_body")
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "unable to read payload", nil)
		return
	}
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		h.count(gateway, "bad_payload")
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "malformed webhook payload", nil)
		return
	}
	if !result.Valid {
		h.count(gateway, "invalid_signature")
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "signature verification failed", nil)
		return
	}
	if result.Status == "" {
		// event type we do not act on; acknowledge so the gateway stops retrying
		h.count(gateway, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", gateway, common.Sha256Hex(string(body)))
		fresh, err := h.Replay.SetNX(ctx, key, "1", h.ReplayTTL).Result()
		if err != nil {
			h.count(gateway, "error")
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "replay store error", nil)
			return
		}
		if !fresh {
			h.count(gateway, "replay")
			common.JSONError(w, http.StatusConflict, common.CodeConflict, "duplicate webhook", nil)
			return
		}
	}

	payment, err := h.Q.GetPaymentByGatewayRef(ctx, pgtype.Text{String: result.GatewayRef, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.count(gateway, "unknown_payment")
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "payment not found", nil)
			return
		}
		h.count(gateway, "error")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment lookup failed", nil)
		return
	}

	var newStatus db.PaymentStatus
	switch result.Status {
	case WebhookStatusCompleted:
		newStatus = db.PaymentStatusCompleted
	case WebhookStatusRefunded:
		newStatus = db.PaymentStatusRefunded
	default:
		newStatus = db.PaymentStatusFailed
	}
	if payment.Status == newStatus {
		h.count(gateway, "replay")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.Q.UpdatePaymentStatus(ctx, db.UpdatePaymentStatusParams{ID: payment.ID, Status: newStatus}); err != nil {
		h.count(gateway, "error")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment update failed", nil)
		return
	}
	_ = h.Q.InsertPaymentEvent(ctx, db.InsertPaymentEventParams{
		PaymentID: payment.ID,
		Status:    newStatus,
		Payload:   result.Payload,
	})

	if err := h.settle(ctx, payment, newStatus); err != nil {
		h.Log.Error().Err(err).
			Str("gateway", gateway).
			Str("payment_type", payment.PaymentType).
			Msg("webhook settlement failed")
		h.count(gateway, "error")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "settlement failed", nil)
		return
	}

	h.count(gateway, "success")
	w.WriteHeader(http.StatusOK)
}

// settle applies the status change to the payment's context and emits the
// matching domain event.
func (h *Webhook) settle(ctx context.Context, payment db.Payment, status db.PaymentStatus) error {
	completed := status == db.PaymentStatusCompleted
	refunded := status == db.PaymentStatusRefunded
	payload := map[string]any{
		"payment_id":   common.UUIDString(payment.ID),
		"payment_type": payment.PaymentType,
		"gateway":      payment.Gateway,
		"amount":       payment.Amount,
		"status":       string(status),
	}

	switch payment.PaymentType {
	case TypeBookPurchase:
		if !payment.OrderID.Valid {
			return errors.New("book purchase payment without order id")
		}
		if err := h.Q.UpdateOrderPaymentStatus(ctx, db.UpdateOrderPaymentStatusParams{
			ID:            payment.OrderID,
			PaymentStatus: status,
		}); err != nil {
			return fmt.Errorf("update order payment status: %w", err)
		}
		payload["order_id"] = common.UUIDString(payment.OrderID)
		switch {
		case completed:
			h.emit(ctx, events.TopicOrderPaid, common.UUIDString(payment.OrderID), payload)
		case refunded:
			h.emit(ctx, events.TopicPaymentRefunded, common.UUIDString(payment.OrderID), payload)
		default:
			h.emit(ctx, events.TopicPaymentFailed, common.UUIDString(payment.OrderID), payload)
		}

	case TypeSchoolFee:
		feePaymentID, err := common.ParseUUID(payment.ContextID.String)
		if err != nil {
			return fmt.Errorf("invalid fee payment context: %w", err)
		}
		if err := h.Q.UpdateFeePaymentStatus(ctx, db.UpdateFeePaymentStatusParams{
			ID:     feePaymentID,
			Status: status,
		}); err != nil {
			return fmt.Errorf("update fee payment status: %w", err)
		}
		payload["fee_payment_id"] = payment.ContextID.String
		switch {
		case completed:
			h.emit(ctx, events.TopicFeePaymentCompleted, payment.ContextID.String, payload)
		case refunded:
			h.emit(ctx, events.TopicPaymentRefunded, payment.ContextID.String, payload)
		default:
			h.emit(ctx, events.TopicPaymentFailed, payment.ContextID.String, payload)
		}

	case TypeSubscription:
		if refunded {
			// already-granted subscription time is not clawed back
			h.emit(ctx, events.TopicPaymentRefunded, payment.ContextID.String, payload)
			return nil
		}
		if !completed {
			h.emit(ctx, events.TopicPaymentFailed, payment.ContextID.String, payload)
			return nil
		}
		userID, err := common.ParseUUID(payment.ContextID.String)
		if err != nil {
			return fmt.Errorf("invalid subscription context: %w", err)
		}
		user, err := h.Q.GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get subscriber: %w", err)
		}
		extension := h.SubscriptionExtension
		if extension <= 0 {
			extension = 365 * 24 * time.Hour
		}
		base := time.Now()
		if user.SubscriptionExpiresAt.Valid && user.SubscriptionExpiresAt.Time.After(base) {
			base = user.SubscriptionExpiresAt.Time
		}
		if err := h.Q.ExtendSubscription(ctx, db.ExtendSubscriptionParams{
			ID:        userID,
			ExpiresAt: pgtype.Timestamptz{Time: base.Add(extension), Valid: true},
		}); err != nil {
			return fmt.Errorf("extend subscription: %w", err)
		}

	default:
		// publication fees and culture programs only need the recorded status
		switch {
		case refunded:
			h.emit(ctx, events.TopicPaymentRefunded, payment.ContextID.String, payload)
		case !completed:
			h.emit(ctx, events.TopicPaymentFailed, payment.ContextID.String, payload)
		}
	}
	return nil
}

func (h *Webhook) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Emit(ctx, topic, aggregateID, payload); err != nil {
		h.Log.Error().Err(err).Str("topic", topic).Msg("webhook event emit failed")
	}
}

func (h *Webhook) count(gateway, result string) {
	if obs.PaymentWebhookTotal == nil {
		return
	}
	if gateway == "" {
		gateway = "unknown"
	}
	obs.PaymentWebhookTotal.WithLabelValues(gateway, result).Inc()
}
