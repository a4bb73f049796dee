package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Item is one snapshotted order line.
type Item struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	UnitPrice int64  `json:"unit_price"`
	Qty       int32  `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

// Order is the API representation of an order.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	Currency        string          `json:"currency"`
	TotalAmount     int64           `json:"total_amount"`
	ShippingAddress json.RawMessage `json:"shipping_address,omitempty"`
	BillingAddress  json.RawMessage `json:"billing_address,omitempty"`
	CancelReason    *string         `json:"cancel_reason,omitempty"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []Item          `json:"items,omitempty"`
}

// ListResult pairs a page of orders with pagination metadata.
type ListResult struct {
	Orders []Order           `json:"data"`
	Meta   common.Pagination `json:"meta"`
}

// Service reads orders and drives the fulfilment status machine.
type Service struct {
	Q db.Querier
}

// statusRank orders the forward-only fulfilment lifecycle. Cancelled sits
// outside the ranking and is only reachable through Cancel.
var statusRank = map[db.OrderStatus]int{
	db.OrderStatusPending:    0,
	db.OrderStatusConfirmed:  1,
	db.OrderStatusProcessing: 2,
	db.OrderStatusShipped:    3,
	db.OrderStatusDelivered:  4,
}

// ListForUser returns the caller's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID pgtype.UUID, page, perPage int) (ListResult, error) {
	rows, err := s.Q.ListOrdersForUser(ctx, db.ListOrdersForUserParams{
		UserID: userID,
		Limit:  int32(perPage),
		Offset: common.Offset(page, perPage),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.Q.CountOrdersForUser(ctx, userID)
	if err != nil {
		return ListResult{}, fmt.Errorf("count orders: %w", err)
	}
	out := ListResult{
		Orders: make([]Order, 0, len(rows)),
		Meta:   common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	}
	for _, row := range rows {
		out.Orders = append(out.Orders, convertOrder(row, nil))
	}
	return out, nil
}

// GetForUser returns one of the caller's orders with its line items.
func (s *Service) GetForUser(ctx context.Context, userID, orderID pgtype.UUID) (Order, error) {
	row, err := s.Q.GetOrderByIDForUser(ctx, db.GetOrderByIDForUserParams{ID: orderID, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.withItems(ctx, row)
}

// Get returns any order with its line items. Admin only.
func (s *Service) Get(ctx context.Context, orderID pgtype.UUID) (Order, error) {
	row, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.withItems(ctx, row)
}

// UpdateStatus advances fulfilment. Transitions only move forward; cancelled
// and delivered orders are terminal.
func (s *Service) UpdateStatus(ctx context.Context, orderID pgtype.UUID, next db.OrderStatus) (Order, error) {
	nextRank, ok := statusRank[next]
	if !ok {
		return Order{}, common.ValidationError("unknown order status", map[string]any{"status": string(next)})
	}
	row, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if row.Status == db.OrderStatusCancelled {
		return Order{}, common.Conflict("order is cancelled")
	}
	if nextRank <= statusRank[row.Status] {
		return Order{}, common.Conflict(fmt.Sprintf("cannot move order from %s to %s", row.Status, next))
	}
	if err := s.Q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{ID: orderID, Status: next}); err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	row.Status = next
	return convertOrder(row, nil), nil
}

// Cancel marks the order cancelled. Delivered and already-cancelled orders
// are terminal; everything else can still be cancelled with a reason.
func (s *Service) Cancel(ctx context.Context, orderID pgtype.UUID, reason string) (Order, error) {
	row, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.cancel(ctx, row, reason)
}

// CancelForUser cancels one of the caller's own orders.
func (s *Service) CancelForUser(ctx context.Context, userID, orderID pgtype.UUID, reason string) (Order, error) {
	row, err := s.Q.GetOrderByIDForUser(ctx, db.GetOrderByIDForUserParams{ID: orderID, UserID: userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return s.cancel(ctx, row, reason)
}

func (s *Service) cancel(ctx context.Context, row db.Order, reason string) (Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Order{}, common.ValidationError("cancel reason is required", nil)
	}
	if row.Status == db.OrderStatusDelivered || row.Status == db.OrderStatusCancelled {
		return Order{}, common.Conflict(fmt.Sprintf("cannot cancel order in status %s", row.Status))
	}
	if err := s.Q.CancelOrder(ctx, db.CancelOrderParams{ID: row.ID, Reason: reason}); err != nil {
		return Order{}, fmt.Errorf("cancel order: %w", err)
	}
	row.Status = db.OrderStatusCancelled
	row.CancelReason = pgtype.Text{String: reason, Valid: true}
	return convertOrder(row, nil), nil
}

// SetTracking records the shipment tracking number.
func (s *Service) SetTracking(ctx context.Context, orderID pgtype.UUID, trackingNumber string) (Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return Order{}, common.ValidationError("tracking_number is required", nil)
	}
	row, err := s.Q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	if row.Status == db.OrderStatusCancelled {
		return Order{}, common.Conflict("order is cancelled")
	}
	tracking := pgtype.Text{String: trackingNumber, Valid: true}
	if err := s.Q.SetOrderTracking(ctx, db.SetOrderTrackingParams{ID: orderID, TrackingNumber: tracking}); err != nil {
		return Order{}, fmt.Errorf("set order tracking: %w", err)
	}
	row.TrackingNumber = tracking
	return convertOrder(row, nil), nil
}

func (s *Service) withItems(ctx context.Context, row db.Order) (Order, error) {
	items, err := s.Q.ListOrderItemsByOrder(ctx, row.ID)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	converted := make([]Item, 0, len(items))
	for _, it := range items {
		converted = append(converted, Item{
			ID:        common.UUIDString(it.ID),
			BookID:    common.UUIDString(it.BookID),
			Title:     it.Title,
			Author:    it.Author,
			UnitPrice: it.UnitPrice,
			Qty:       it.Qty,
			Subtotal:  it.Subtotal,
		})
	}
	return convertOrder(row, converted), nil
}

func convertOrder(row db.Order, items []Item) Order {
	out := Order{
		ID:              common.UUIDString(row.ID),
		OrderNumber:     row.OrderNumber,
		Status:          string(row.Status),
		PaymentStatus:   string(row.PaymentStatus),
		Currency:        row.Currency,
		TotalAmount:     row.TotalAmount,
		ShippingAddress: row.ShippingAddress,
		BillingAddress:  row.BillingAddress,
		Items:           items,
	}
	if row.CancelReason.Valid {
		out.CancelReason = &row.CancelReason.String
	}
	if row.TrackingNumber.Valid {
		out.TrackingNumber = &row.TrackingNumber.String
	}
	if row.CreatedAt.Valid {
		out.CreatedAt = row.CreatedAt.Time
	}
	return out
}
