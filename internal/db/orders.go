package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, order_number, status, payment_status, currency,
	total_amount, shipping_address, billing_address, cancel_reason, tracking_number,
	created_at, updated_at`

type CreateOrderParams struct {
	UserID          pgtype.UUID
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Currency        string
	TotalAmount     int64
	ShippingAddress []byte
	BillingAddress  []byte
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, order_number, status, payment_status, currency,
		                    total_amount, shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns,
		arg.UserID, arg.OrderNumber, arg.Status, arg.PaymentStatus, arg.Currency,
		arg.TotalAmount, arg.ShippingAddress, arg.BillingAddress)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID   pgtype.UUID
	BookID    pgtype.UUID
	Title     string
	Author    string
	UnitPrice int64
	Qty       int32
	Subtotal  int64
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_items (order_id, book_id, title, author, unit_price, qty, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		arg.OrderID, arg.BookID, arg.Title, arg.Author, arg.UnitPrice, arg.Qty, arg.Subtotal)
	return err
}

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type GetOrderByIDForUserParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) GetOrderByIDForUser(ctx context.Context, arg GetOrderByIDForUserParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		arg.ID, arg.UserID)
	return scanOrder(row)
}

type ListOrdersForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListOrdersForUser(ctx context.Context, arg ListOrdersForUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, book_id, title, author, unit_price, qty, subtotal
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Title, &it.Author,
			&it.UnitPrice, &it.Qty, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, arg.ID, arg.Status)
	return err
}

type CancelOrderParams struct {
	ID     pgtype.UUID
	Reason string
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE orders SET status = 'cancelled', cancel_reason = $2, updated_at = now()
		WHERE id = $1`, arg.ID, arg.Reason)
	return err
}

type UpdateOrderPaymentStatusParams struct {
	ID            pgtype.UUID
	PaymentStatus PaymentStatus
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.PaymentStatus)
	return err
}

type SetOrderTrackingParams struct {
	ID             pgtype.UUID
	TrackingNumber pgtype.Text
}

func (q *Queries) SetOrderTracking(ctx context.Context, arg SetOrderTrackingParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE orders SET tracking_number = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.TrackingNumber)
	return err
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.PaymentStatus,
		&o.Currency, &o.TotalAmount, &o.ShippingAddress, &o.BillingAddress,
		&o.CancelReason, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
