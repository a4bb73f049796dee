package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Payment purposes accepted by CreateIntent. Each carries its own context
// identifier which is validated before any gateway call.
const (
	TypeBookPurchase   = "book_purchase"
	TypeSubscription   = "subscription"
	TypePublicationFee = "publication_fee"
	TypeSchoolFee      = "school_fee"
	TypeCultureProgram = "culture_program"
)

// IntentInput is the create-intent request body. Exactly one context field
// must match the payment type.
type IntentInput struct {
	PaymentType  string `json:"payment_type"`
	Gateway      string `json:"gateway,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	FeePaymentID string `json:"fee_payment_id,omitempty"`
	PostID       string `json:"post_id,omitempty"`
	ProgramID    int64  `json:"program_id,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
}

// Intent is the create-intent response consumed by the frontend SDKs.
type Intent struct {
	PaymentID   string `json:"payment_id"`
	PaymentType string `json:"payment_type"`
	Gateway     string `json:"gateway"`
	GatewayRef  string `json:"gateway_ref"`
	ClientToken string `json:"client_token"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Service orchestrates payment intents across the configured gateways.
type Service struct {
	Q              db.Querier
	Providers      map[string]Provider
	DefaultGateway string
	Currency       string
}

// CreateIntent validates the payment context, opens a gateway intent, and
// records the pending payment. Gateway failures surface as
// PAYMENT_SETUP_ERROR; the server never retries on the caller's behalf.
func (s *Service) CreateIntent(ctx context.Context, userID pgtype.UUID, in IntentInput) (Intent, error) {
	gateway := strings.ToLower(strings.TrimSpace(in.Gateway))
	if gateway == "" {
		gateway = s.DefaultGateway
	}
	provider, ok := s.Providers[gateway]
	if !ok {
		s.countIntent(gateway, in.PaymentType, "validation_error")
		return Intent{}, common.ValidationError("unknown payment gateway", map[string]any{"gateway": gateway})
	}

	pctx, err := s.resolveContext(ctx, userID, in)
	if err != nil {
		s.countIntent(gateway, in.PaymentType, "validation_error")
		return Intent{}, err
	}

	currency := s.Currency
	if currency == "" {
		currency = "INR"
	}
	resp, err := provider.CreateIntent(ctx, IntentRequest{
		Reference: pctx.reference,
		Amount:    pctx.amount,
		Currency:  currency,
		Notes: map[string]string{
			"payment_type": in.PaymentType,
			"context_id":   pctx.contextID,
		},
	})
	if err != nil {
		s.countIntent(gateway, in.PaymentType, "error")
		return Intent{}, common.PaymentSetupError(err)
	}

	row, err := s.Q.CreatePayment(ctx, db.CreatePaymentParams{
		OrderID:     pctx.orderID,
		PaymentType: in.PaymentType,
		Gateway:     gateway,
		GatewayRef:  pgtype.Text{String: resp.GatewayRef, Valid: resp.GatewayRef != ""},
		IntentToken: pgtype.Text{String: resp.ClientToken, Valid: resp.ClientToken != ""},
		Amount:      pctx.amount,
		Currency:    currency,
		Status:      db.PaymentStatusPending,
		ContextID:   pgtype.Text{String: pctx.contextID, Valid: pctx.contextID != ""},
		Payload:     nil,
	})
	if err != nil {
		s.countIntent(gateway, in.PaymentType, "error")
		return Intent{}, fmt.Errorf("create payment: %w", err)
	}
	_ = s.Q.InsertPaymentEvent(ctx, db.InsertPaymentEventParams{
		PaymentID: row.ID,
		Status:    db.PaymentStatusPending,
		Payload:   nil,
	})
	s.countIntent(gateway, in.PaymentType, "success")

	return Intent{
		PaymentID:   common.UUIDString(row.ID),
		PaymentType: row.PaymentType,
		Gateway:     row.Gateway,
		GatewayRef:  resp.GatewayRef,
		ClientToken: resp.ClientToken,
		Amount:      row.Amount,
		Currency:    row.Currency,
		Status:      string(row.Status),
	}, nil
}

// StatusForOrder reports the latest payment status on one of the caller's
// orders, falling back to the order's own payment state when no intent
// exists yet.
func (s *Service) StatusForOrder(ctx context.Context, userID, orderID pgtype.UUID) (string, error) {
	order, err := s.Q.GetOrderByIDForUser(ctx, db.GetOrderByIDForUserParams{ID: orderID, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.NotFound("order")
		}
		return "", fmt.Errorf("get order: %w", err)
	}
	payment, err := s.Q.GetLatestPaymentByOrder(ctx, orderID)
	if err == nil {
		return string(payment.Status), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("get latest payment: %w", err)
	}
	return string(order.PaymentStatus), nil
}

type paymentContext struct {
	orderID   pgtype.UUID
	contextID string
	reference string
	amount    int64
}

func (s *Service) resolveContext(ctx context.Context, userID pgtype.UUID, in IntentInput) (paymentContext, error) {
	switch in.PaymentType {
	case TypeBookPurchase:
		orderID, err := common.ParseUUID(in.OrderID)
		if err != nil {
			return paymentContext{}, common.ValidationError("order_id is required for book purchases", nil)
		}
		order, err := s.Q.GetOrderByIDForUser(ctx, db.GetOrderByIDForUserParams{ID: orderID, UserID: userID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return paymentContext{}, common.NotFound("order")
			}
			return paymentContext{}, fmt.Errorf("get order: %w", err)
		}
		if order.PaymentStatus == db.PaymentStatusCompleted {
			return paymentContext{}, common.Conflict("order is already paid")
		}
		if order.Status == db.OrderStatusCancelled {
			return paymentContext{}, common.Conflict("order is cancelled")
		}
		// The order total is authoritative; a differing client amount is a bug
		// or tampering, never something to charge.
		if in.Amount != 0 && in.Amount != order.TotalAmount {
			return paymentContext{}, common.ValidationError("amount does not match order total",
				map[string]any{"expected": order.TotalAmount, "got": in.Amount})
		}
		return paymentContext{
			orderID:   orderID,
			contextID: common.UUIDString(orderID),
			reference: order.OrderNumber,
			amount:    order.TotalAmount,
		}, nil

	case TypeSchoolFee:
		feePaymentID, err := common.ParseUUID(in.FeePaymentID)
		if err != nil {
			return paymentContext{}, common.ValidationError("fee_payment_id is required for school fees", nil)
		}
		fee, err := s.Q.GetFeePaymentByID(ctx, feePaymentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return paymentContext{}, common.NotFound("fee payment")
			}
			return paymentContext{}, fmt.Errorf("get fee payment: %w", err)
		}
		if fee.Status == db.PaymentStatusCompleted {
			return paymentContext{}, common.Conflict("fee payment is already completed")
		}
		if in.Amount != 0 && in.Amount != fee.Amount {
			return paymentContext{}, common.ValidationError("amount does not match fee payment",
				map[string]any{"expected": fee.Amount, "got": in.Amount})
		}
		return paymentContext{
			contextID: common.UUIDString(fee.ID),
			reference: "FEE-" + common.UUIDString(fee.ID),
			amount:    fee.Amount,
		}, nil

	case TypeSubscription:
		if in.Amount <= 0 {
			return paymentContext{}, common.ValidationError("amount is required for subscriptions", nil)
		}
		return paymentContext{
			contextID: common.UUIDString(userID),
			reference: "SUB-" + common.UUIDString(userID),
			amount:    in.Amount,
		}, nil

	case TypePublicationFee:
		postID, err := common.ParseUUID(in.PostID)
		if err != nil {
			return paymentContext{}, common.ValidationError("post_id is required for publication fees", nil)
		}
		post, err := s.Q.GetPostByID(ctx, postID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return paymentContext{}, common.NotFound("post")
			}
			return paymentContext{}, fmt.Errorf("get post: %w", err)
		}
		if post.UserID != userID {
			return paymentContext{}, common.Forbidden("post belongs to another user")
		}
		if in.Amount <= 0 {
			return paymentContext{}, common.ValidationError("amount is required for publication fees", nil)
		}
		return paymentContext{
			contextID: common.UUIDString(postID),
			reference: "PUB-" + common.UUIDString(postID),
			amount:    in.Amount,
		}, nil

	case TypeCultureProgram:
		if in.ProgramID <= 0 {
			return paymentContext{}, common.ValidationError("program_id is required for culture programs", nil)
		}
		program, err := s.Q.GetCultureProgramByID(ctx, in.ProgramID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return paymentContext{}, common.NotFound("culture program")
			}
			return paymentContext{}, fmt.Errorf("get culture program: %w", err)
		}
		if in.Amount <= 0 {
			return paymentContext{}, common.ValidationError("amount is required for culture programs", nil)
		}
		return paymentContext{
			contextID: strconv.FormatInt(program.ID, 10),
			reference: "CUL-" + strconv.FormatInt(program.ID, 10),
			amount:    in.Amount,
		}, nil

	default:
		return paymentContext{}, common.ValidationError("unknown payment type", map[string]any{"payment_type": in.PaymentType})
	}
}

func (s *Service) countIntent(gateway, paymentType, result string) {
	if obs.PaymentIntentTotal == nil {
		return
	}
	if gateway == "" {
		gateway = "unknown"
	}
	if paymentType == "" {
		paymentType = "unknown"
	}
	obs.PaymentIntentTotal.WithLabelValues(gateway, paymentType, result).Inc()
}
