package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// ListCartItemsForUser joins cart rows with live book data so the cart total
// always reflects current prices.
func (q *Queries) ListCartItemsForUser(ctx context.Context, userID pgtype.UUID) ([]CartItemDetail, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ci.id, ci.book_id, b.title, b.author, b.price, b.stock, ci.qty
		FROM cart_items ci
		JOIN books b ON b.id = ci.book_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItemDetail
	for rows.Next() {
		var it CartItemDetail
		if err := rows.Scan(&it.ID, &it.BookID, &it.Title, &it.Author, &it.Price, &it.Stock, &it.Qty); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) GetCartItemByID(ctx context.Context, id pgtype.UUID) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id, book_id, qty, created_at, updated_at
		FROM cart_items WHERE id = $1`, id)
	return scanCartItem(row)
}

type FindCartItemParams struct {
	UserID pgtype.UUID
	BookID pgtype.UUID
}

func (q *Queries) FindCartItem(ctx context.Context, arg FindCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id, book_id, qty, created_at, updated_at
		FROM cart_items WHERE user_id = $1 AND book_id = $2`, arg.UserID, arg.BookID)
	return scanCartItem(row)
}

type CreateCartItemParams struct {
	UserID pgtype.UUID
	BookID pgtype.UUID
	Qty    int32
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, book_id, qty)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, book_id, qty, created_at, updated_at`,
		arg.UserID, arg.BookID, arg.Qty)
	return scanCartItem(row)
}

type UpdateCartItemQtyParams struct {
	ID  pgtype.UUID
	Qty int32
}

func (q *Queries) UpdateCartItemQty(ctx context.Context, arg UpdateCartItemQtyParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE cart_items SET qty = $2, updated_at = now() WHERE id = $1`, arg.ID, arg.Qty)
	return err
}

type DeleteCartItemParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, arg.ID, arg.UserID)
	return err
}

func (q *Queries) ClearCart(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func scanCartItem(row rowScanner) (CartItem, error) {
	var ci CartItem
	err := row.Scan(&ci.ID, &ci.UserID, &ci.BookID, &ci.Qty, &ci.CreatedAt, &ci.UpdatedAt)
	return ci, err
}
