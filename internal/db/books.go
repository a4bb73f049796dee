package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const bookColumns = `id, title, author, description, genre, price, stock,
	stock_threshold, image_url, created_at, updated_at`

type ListBooksParams struct {
	Search string
	Genre  string
	Limit  int32
	Offset int32
}

func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR genre = $2)
		ORDER BY title
		LIMIT $3 OFFSET $4`,
		arg.Search, arg.Genre, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

type CountBooksParams struct {
	Search string
	Genre  string
}

func (q *Queries) CountBooks(ctx context.Context, arg CountBooksParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM books
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR genre = $2)`,
		arg.Search, arg.Genre).Scan(&total)
	return total, err
}

func (q *Queries) GetBookByID(ctx context.Context, id pgtype.UUID) (Book, error) {
	row := q.db.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

type CreateBookParams struct {
	Title          string
	Author         string
	Description    pgtype.Text
	Genre          pgtype.Text
	Price          int64
	Stock          int32
	StockThreshold int32
	ImageUrl       pgtype.Text
}

func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (Book, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO books (title, author, description, genre, price, stock, stock_threshold, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+bookColumns,
		arg.Title, arg.Author, arg.Description, arg.Genre, arg.Price, arg.Stock,
		arg.StockThreshold, arg.ImageUrl)
	return scanBook(row)
}

type UpdateBookParams struct {
	ID             pgtype.UUID
	Title          string
	Author         string
	Description    pgtype.Text
	Genre          pgtype.Text
	Price          int64
	Stock          int32
	StockThreshold int32
	ImageUrl       pgtype.Text
}

func (q *Queries) UpdateBook(ctx context.Context, arg UpdateBookParams) (Book, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE books
		SET title = $2, author = $3, description = $4, genre = $5, price = $6,
		    stock = $7, stock_threshold = $8, image_url = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+bookColumns,
		arg.ID, arg.Title, arg.Author, arg.Description, arg.Genre, arg.Price,
		arg.Stock, arg.StockThreshold, arg.ImageUrl)
	return scanBook(row)
}

func (q *Queries) DeleteBook(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	return err
}

type DecrementBookStockParams struct {
	ID  pgtype.UUID
	Qty int32
}

// DecrementBookStock only succeeds when enough stock remains; callers must
// treat pgx.ErrNoRows as an out-of-stock condition.
func (q *Queries) DecrementBookStock(ctx context.Context, arg DecrementBookStockParams) (Book, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE books SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING `+bookColumns,
		arg.ID, arg.Qty)
	return scanBook(row)
}

func (q *Queries) ListLowStockBooks(ctx context.Context) ([]Book, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE stock <= stock_threshold
		ORDER BY stock ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var books []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Genre, &b.Price,
		&b.Stock, &b.StockThreshold, &b.ImageUrl, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
