package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Book is the public catalog payload.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	Genre       string    `json:"genre,omitempty"`
	Price       int64     `json:"price"`
	InStock     bool      `json:"in_stock"`
	Stock       int32     `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookInput captures admin create/update payloads.
type BookInput struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	Description    string `json:"description"`
	Genre          string `json:"genre"`
	Price          int64  `json:"price"`
	Stock          int32  `json:"stock"`
	StockThreshold int32  `json:"stock_threshold"`
	ImageURL       string `json:"image_url"`
}

// ListParams captures filters for book listing.
type ListParams struct {
	Search  string
	Genre   string
	Page    int
	PerPage int
}

// ListResult bundles one page of books with pagination metadata.
type ListResult struct {
	Books []Book            `json:"books"`
	Meta  common.Pagination `json:"meta"`
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	Q     db.Querier
	Cache *Cache
}

// List returns a page of books, served from cache when possible.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	p.Search = strings.TrimSpace(p.Search)
	p.Genre = strings.TrimSpace(p.Genre)

	key := s.Cache.ListKey(ctx, p.Search, p.Genre, p.Page, p.PerPage)
	var cached ListResult
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := s.Q.ListBooks(ctx, db.ListBooksParams{
		Search: p.Search,
		Genre:  p.Genre,
		Limit:  int32(p.PerPage),
		Offset: common.Offset(p.Page, p.PerPage),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list books: %w", err)
	}
	total, err := s.Q.CountBooks(ctx, db.CountBooksParams{Search: p.Search, Genre: p.Genre})
	if err != nil {
		return ListResult{}, fmt.Errorf("count books: %w", err)
	}

	result := ListResult{
		Books: make([]Book, 0, len(rows)),
		Meta:  common.Pagination{Page: p.Page, PerPage: p.PerPage, TotalItems: total},
	}
	for _, row := range rows {
		result.Books = append(result.Books, convertBook(row))
	}

	_ = s.Cache.SetJSON(ctx, key, result)
	return result, nil
}

// Get returns one book by id.
func (s *Service) Get(ctx context.Context, id pgtype.UUID) (Book, error) {
	row, err := s.Q.GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, common.NotFound("book")
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return convertBook(row), nil
}

// Create adds a book to the catalog and invalidates cached pages.
func (s *Service) Create(ctx context.Context, in BookInput) (Book, error) {
	if err := validateBookInput(in); err != nil {
		return Book{}, err
	}
	row, err := s.Q.CreateBook(ctx, db.CreateBookParams{
		Title:          strings.TrimSpace(in.Title),
		Author:         strings.TrimSpace(in.Author),
		Description:    optionalText(in.Description),
		Genre:          optionalText(in.Genre),
		Price:          in.Price,
		Stock:          in.Stock,
		StockThreshold: in.StockThreshold,
		ImageUrl:       optionalText(in.ImageURL),
	})
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	s.Cache.Bump(ctx)
	return convertBook(row), nil
}

// Update replaces a book's catalog fields and invalidates cached pages.
func (s *Service) Update(ctx context.Context, id pgtype.UUID, in BookInput) (Book, error) {
	if err := validateBookInput(in); err != nil {
		return Book{}, err
	}
	row, err := s.Q.UpdateBook(ctx, db.UpdateBookParams{
		ID:             id,
		Title:          strings.TrimSpace(in.Title),
		Author:         strings.TrimSpace(in.Author),
		Description:    optionalText(in.Description),
		Genre:          optionalText(in.Genre),
		Price:          in.Price,
		Stock:          in.Stock,
		StockThreshold: in.StockThreshold,
		ImageUrl:       optionalText(in.ImageURL),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, common.NotFound("book")
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	s.Cache.Bump(ctx)
	return convertBook(row), nil
}

// Delete removes a book and invalidates cached pages.
func (s *Service) Delete(ctx context.Context, id pgtype.UUID) error {
	if err := s.Q.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.Cache.Bump(ctx)
	return nil
}

// LowStock lists books at or under their restock threshold.
func (s *Service) LowStock(ctx context.Context) ([]Book, error) {
	rows, err := s.Q.ListLowStockBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	out := make([]Book, 0, len(rows))
	for _, row := range rows {
		out = append(out, convertBook(row))
	}
	return out, nil
}

func validateBookInput(in BookInput) error {
	details := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(in.Author) == "" {
		details["author"] = "required"
	}
	if in.Price <= 0 {
		details["price"] = "must be positive"
	}
	if in.Stock < 0 {
		details["stock"] = "must not be negative"
	}
	if len(details) > 0 {
		return common.ValidationError("invalid book", details)
	}
	return nil
}

func convertBook(b db.Book) Book {
	return Book{
		ID:          common.UUIDString(b.ID),
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description.String,
		Genre:       b.Genre.String,
		Price:       b.Price,
		InStock:     b.Stock > 0,
		Stock:       b.Stock,
		ImageURL:    b.ImageUrl.String,
		CreatedAt:   b.CreatedAt.Time,
	}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
