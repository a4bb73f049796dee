package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prayas-foundation/prayas-api/internal/cart"
	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
	"github.com/prayas-foundation/prayas-api/internal/obs"
)

// Address is snapshotted onto the order as JSON at checkout time.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
}

// Input is the checkout request body.
type Input struct {
	ShippingAddress Address  `json:"shipping_address"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
}

// Line is one snapshotted order line in the checkout response.
type Line struct {
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	UnitPrice int64  `json:"unit_price"`
	Qty       int32  `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

// Output describes the order created from the cart.
type Output struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Currency      string `json:"currency"`
	TotalAmount   int64  `json:"total_amount"`
	Items         []Line `json:"items"`
}

// TxRunner executes fn against a transaction-scoped query set. The production
// runner wraps a pgx transaction; tests substitute an in-memory one.
type TxRunner func(ctx context.Context, fn func(q db.Querier) error) error

// PoolRunner builds the production TxRunner over a pgx pool.
func PoolRunner(pool *pgxpool.Pool, q *db.Queries) TxRunner {
	return func(ctx context.Context, fn func(db.Querier) error) error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin checkout tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if err := fn(q.WithTx(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// Service converts a cart into an order inside a single transaction.
type Service struct {
	Q        db.Querier
	InTx     TxRunner
	Cart     *cart.Service
	Events   *events.Bus
	Currency string
}

// Create places an order from the user's current cart. Stock is decremented
// per line inside the transaction; any shortage rolls the whole order back.
func (s *Service) Create(ctx context.Context, userID pgtype.UUID, in Input) (Output, error) {
	if err := validateAddress(in.ShippingAddress); err != nil {
		s.count("validation_error")
		return Output{}, err
	}
	billing := in.ShippingAddress
	if in.BillingAddress != nil {
		if err := validateAddress(*in.BillingAddress); err != nil {
			s.count("validation_error")
			return Output{}, err
		}
		billing = *in.BillingAddress
	}

	items, err := s.Q.ListCartItemsForUser(ctx, userID)
	if err != nil {
		s.count("error")
		return Output{}, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		s.count("empty_cart")
		return Output{}, common.ValidationError("cart is empty", nil)
	}

	currency := s.Currency
	if currency == "" {
		currency = "INR"
	}

	var (
		order db.Order
		lines []Line
	)
	err = s.InTx(ctx, func(q db.Querier) error {
		var total int64
		lines = lines[:0]
		for _, it := range items {
			book, err := q.DecrementBookStock(ctx, db.DecrementBookStockParams{ID: it.BookID, Qty: it.Qty})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return common.OutOfStock(map[string]any{
						"book_id":   common.UUIDString(it.BookID),
						"requested": it.Qty,
					})
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
			subtotal := book.Price * int64(it.Qty)
			total += subtotal
			lines = append(lines, Line{
				BookID:    common.UUIDString(book.ID),
				Title:     book.Title,
				Author:    book.Author,
				UnitPrice: book.Price,
				Qty:       it.Qty,
				Subtotal:  subtotal,
			})
		}

		order, err = q.CreateOrder(ctx, db.CreateOrderParams{
			UserID:          userID,
			OrderNumber:     newOrderNumber(),
			Status:          db.OrderStatusPending,
			PaymentStatus:   db.PaymentStatusPending,
			Currency:        currency,
			TotalAmount:     total,
			ShippingAddress: mustJSON(in.ShippingAddress),
			BillingAddress:  mustJSON(billing),
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for _, line := range lines {
			bookID, err := common.ParseUUID(line.BookID)
			if err != nil {
				return err
			}
			if err := q.CreateOrderItem(ctx, db.CreateOrderItemParams{
				OrderID:   order.ID,
				BookID:    bookID,
				Title:     line.Title,
				Author:    line.Author,
				UnitPrice: line.UnitPrice,
				Qty:       line.Qty,
				Subtotal:  line.Subtotal,
			}); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}
		if err := q.ClearCart(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == common.CodeOutOfStock {
			s.count("out_of_stock")
		} else {
			s.count("error")
		}
		return Output{}, err
	}

	if s.Cart != nil {
		s.Cart.InvalidateView(ctx, userID)
	}
	if s.Events != nil {
		_ = s.Events.Emit(ctx, events.TopicOrderCreated, common.UUIDString(order.ID), map[string]any{
			"order_number": order.OrderNumber,
			"user_id":      common.UUIDString(userID),
			"total_amount": order.TotalAmount,
			"currency":     order.Currency,
		})
	}
	s.count("success")

	return Output{
		OrderID:       common.UUIDString(order.ID),
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Currency:      order.Currency,
		TotalAmount:   order.TotalAmount,
		Items:         lines,
	}, nil
}

func (s *Service) count(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func validateAddress(a Address) error {
	details := map[string]any{}
	if strings.TrimSpace(a.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(a.Phone) == "" {
		details["phone"] = "required"
	}
	if strings.TrimSpace(a.Line1) == "" {
		details["line1"] = "required"
	}
	if strings.TrimSpace(a.City) == "" {
		details["city"] = "required"
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		details["postal_code"] = "required"
	}
	if len(details) > 0 {
		return common.ValidationError("incomplete address", details)
	}
	return nil
}

func newOrderNumber() string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().UTC().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(suffix[:])))
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
