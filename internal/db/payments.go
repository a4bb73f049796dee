package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, payment_type, gateway, gateway_ref, intent_token,
	amount, currency, status, context_id, payload, created_at, updated_at`

type CreatePaymentParams struct {
	OrderID     pgtype.UUID
	PaymentType string
	Gateway     string
	GatewayRef  pgtype.Text
	IntentToken pgtype.Text
	Amount      int64
	Currency    string
	Status      PaymentStatus
	ContextID   pgtype.Text
	Payload     []byte
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, payment_type, gateway, gateway_ref, intent_token,
		                      amount, currency, status, context_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+paymentColumns,
		arg.OrderID, arg.PaymentType, arg.Gateway, arg.GatewayRef, arg.IntentToken,
		arg.Amount, arg.Currency, arg.Status, arg.ContextID, arg.Payload)
	return scanPayment(row)
}

func (q *Queries) GetLatestPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID)
	return scanPayment(row)
}

func (q *Queries) GetPaymentByGatewayRef(ctx context.Context, gatewayRef pgtype.Text) (Payment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE gateway_ref = $1`, gatewayRef)
	return scanPayment(row)
}

type UpdatePaymentStatusParams struct {
	ID     pgtype.UUID
	Status PaymentStatus
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE payments SET status = $2, updated_at = now() WHERE id = $1`, arg.ID, arg.Status)
	return err
}

type InsertPaymentEventParams struct {
	PaymentID pgtype.UUID
	Status    PaymentStatus
	Payload   []byte
}

func (q *Queries) InsertPaymentEvent(ctx context.Context, arg InsertPaymentEventParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payment_events (payment_id, status, payload) VALUES ($1, $2, $3)`,
		arg.PaymentID, arg.Status, arg.Payload)
	return err
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.PaymentType, &p.Gateway, &p.GatewayRef,
		&p.IntentToken, &p.Amount, &p.Currency, &p.Status, &p.ContextID, &p.Payload,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}
