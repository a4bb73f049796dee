package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

// Item is one cart line joined with the live book record. Prices always
// reflect the current catalog, never a stored snapshot.
type Item struct {
	ID       string `json:"id"`
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    int64  `json:"price"`
	Qty      int32  `json:"qty"`
	Subtotal int64  `json:"subtotal"`
	Stock    int32  `json:"stock"`
}

// View is the assembled cart payload.
type View struct {
	Items      []Item `json:"items"`
	TotalItems int32  `json:"total_items"`
	Subtotal   int64  `json:"subtotal"`
}

// Service manages per-user carts with a short-lived Redis view cache.
type Service struct {
	Q   db.Querier
	R   *redis.Client
	TTL time.Duration
}

func cartKey(userID pgtype.UUID) string {
	return "cart:view:" + common.UUIDString(userID)
}

// Get assembles the cart view for the user, serving the cached copy when
// one exists.
func (s *Service) Get(ctx context.Context, userID pgtype.UUID) (View, error) {
	if s.R != nil {
		if data, err := s.R.Get(ctx, cartKey(userID)).Bytes(); err == nil {
			var cached View
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	rows, err := s.Q.ListCartItemsForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("list cart items: %w", err)
	}
	view := View{Items: make([]Item, 0, len(rows))}
	for _, row := range rows {
		subtotal := row.Price * int64(row.Qty)
		view.Items = append(view.Items, Item{
			ID:       common.UUIDString(row.ID),
			BookID:   common.UUIDString(row.BookID),
			Title:    row.Title,
			Author:   row.Author,
			Price:    row.Price,
			Qty:      row.Qty,
			Subtotal: subtotal,
			Stock:    row.Stock,
		})
		view.TotalItems += row.Qty
		view.Subtotal += subtotal
	}

	if s.R != nil {
		if data, err := json.Marshal(view); err == nil {
			_ = s.R.Set(ctx, cartKey(userID), data, s.TTL).Err()
		}
	}
	return view, nil
}

// Add puts qty copies of a book in the cart, merging with an existing line.
func (s *Service) Add(ctx context.Context, userID, bookID pgtype.UUID, qty int32) (View, error) {
	if qty <= 0 {
		return View{}, common.ValidationError("qty must be positive", nil)
	}

	book, err := s.Q.GetBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, common.NotFound("book")
		}
		return View{}, fmt.Errorf("get book: %w", err)
	}

	newQty := qty
	existing, err := s.Q.FindCartItem(ctx, db.FindCartItemParams{UserID: userID, BookID: bookID})
	switch {
	case err == nil:
		newQty += existing.Qty
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return View{}, fmt.Errorf("find cart item: %w", err)
	}

	if newQty > book.Stock {
		return View{}, common.OutOfStock(map[string]any{
			"book_id":   common.UUIDString(bookID),
			"requested": newQty,
			"available": book.Stock,
		})
	}

	if existing.ID.Valid {
		if err := s.Q.UpdateCartItemQty(ctx, db.UpdateCartItemQtyParams{ID: existing.ID, Qty: newQty}); err != nil {
			return View{}, fmt.Errorf("update cart item: %w", err)
		}
	} else {
		if _, err := s.Q.CreateCartItem(ctx, db.CreateCartItemParams{UserID: userID, BookID: bookID, Qty: qty}); err != nil {
			return View{}, fmt.Errorf("create cart item: %w", err)
		}
	}

	s.invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

// UpdateQty sets the quantity on a cart line. Zero or negative removes it.
func (s *Service) UpdateQty(ctx context.Context, userID, itemID pgtype.UUID, qty int32) (View, error) {
	item, err := s.Q.GetCartItemByID(ctx, itemID)
	if err != nil || item.UserID != userID {
		return View{}, common.NotFound("cart item")
	}

	if qty <= 0 {
		if err := s.Q.DeleteCartItem(ctx, db.DeleteCartItemParams{ID: itemID, UserID: userID}); err != nil {
			return View{}, fmt.Errorf("delete cart item: %w", err)
		}
		s.invalidate(ctx, userID)
		return s.Get(ctx, userID)
	}

	book, err := s.Q.GetBookByID(ctx, item.BookID)
	if err != nil {
		return View{}, fmt.Errorf("get book: %w", err)
	}
	if qty > book.Stock {
		return View{}, common.OutOfStock(map[string]any{
			"book_id":   common.UUIDString(item.BookID),
			"requested": qty,
			"available": book.Stock,
		})
	}

	if err := s.Q.UpdateCartItemQty(ctx, db.UpdateCartItemQtyParams{ID: itemID, Qty: qty}); err != nil {
		return View{}, fmt.Errorf("update cart item: %w", err)
	}
	s.invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

// Remove deletes one cart line.
func (s *Service) Remove(ctx context.Context, userID, itemID pgtype.UUID) (View, error) {
	if err := s.Q.DeleteCartItem(ctx, db.DeleteCartItemParams{ID: itemID, UserID: userID}); err != nil {
		return View{}, fmt.Errorf("delete cart item: %w", err)
	}
	s.invalidate(ctx, userID)
	return s.Get(ctx, userID)
}

// InvalidateView drops the cached cart view. Checkout calls this after it
// clears the cart inside its own transaction.
func (s *Service) InvalidateView(ctx context.Context, userID pgtype.UUID) {
	s.invalidate(ctx, userID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID pgtype.UUID) error {
	if err := s.Q.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID pgtype.UUID) {
	if s.R == nil {
		return
	}
	_ = s.R.Del(ctx, cartKey(userID)).Err()
}
