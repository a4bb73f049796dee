package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	books map[pgtype.UUID]db.Book
	items map[pgtype.UUID]db.CartItem
	next  byte
}

func newStubStore() *stubStore {
	return &stubStore{
		books: map[pgtype.UUID]db.Book{},
		items: map[pgtype.UUID]db.CartItem{},
		next:  1,
	}
}

func (s *stubStore) addBook(stock int32, price int64) pgtype.UUID {
	id := testUUID(s.next)
	s.next++
	s.books[id] = db.Book{ID: id, Title: "Godaan", Author: "Premchand", Price: price, Stock: stock}
	return id
}

func (s *stubStore) GetBookByID(_ context.Context, id pgtype.UUID) (db.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return db.Book{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *stubStore) ListCartItemsForUser(_ context.Context, userID pgtype.UUID) ([]db.CartItemDetail, error) {
	var out []db.CartItemDetail
	for _, item := range s.items {
		if item.UserID != userID {
			continue
		}
		book := s.books[item.BookID]
		out = append(out, db.CartItemDetail{
			ID:     item.ID,
			BookID: item.BookID,
			Title:  book.Title,
			Author: book.Author,
			Price:  book.Price,
			Stock:  book.Stock,
			Qty:    item.Qty,
		})
	}
	return out, nil
}

func (s *stubStore) GetCartItemByID(_ context.Context, id pgtype.UUID) (db.CartItem, error) {
	item, ok := s.items[id]
	if !ok {
		return db.CartItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *stubStore) FindCartItem(_ context.Context, arg db.FindCartItemParams) (db.CartItem, error) {
	for _, item := range s.items {
		if item.UserID == arg.UserID && item.BookID == arg.BookID {
			return item, nil
		}
	}
	return db.CartItem{}, pgx.ErrNoRows
}

func (s *stubStore) CreateCartItem(_ context.Context, arg db.CreateCartItemParams) (db.CartItem, error) {
	id := testUUID(0xF0 + s.next)
	s.next++
	item := db.CartItem{ID: id, UserID: arg.UserID, BookID: arg.BookID, Qty: arg.Qty}
	s.items[id] = item
	return item, nil
}

func (s *stubStore) UpdateCartItemQty(_ context.Context, arg db.UpdateCartItemQtyParams) error {
	item := s.items[arg.ID]
	item.Qty = arg.Qty
	s.items[arg.ID] = item
	return nil
}

func (s *stubStore) DeleteCartItem(_ context.Context, arg db.DeleteCartItemParams) error {
	delete(s.items, arg.ID)
	return nil
}

func (s *stubStore) ClearCart(_ context.Context, userID pgtype.UUID) error {
	for id, item := range s.items {
		if item.UserID == userID {
			delete(s.items, id)
		}
	}
	return nil
}

func testUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

func newTestService(t *testing.T) (*Service, *stubStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := newStubStore()
	return &Service{Q: store, R: client, TTL: time.Minute}, store
}

func TestAddComputesTotals(t *testing.T) {
	svc, store := newTestService(t)
	userID := testUUID(0xAA)
	bookID := store.addBook(10, 250)

	view, err := svc.Add(context.Background(), userID, bookID, 2)
	require.NoError(t, err)
	require.Equal(t, int32(2), view.TotalItems)
	require.Equal(t, int64(500), view.Subtotal)
	require.Equal(t, int64(500), view.Items[0].Subtotal)
}

func TestAddMergesExistingLine(t *testing.T) {
	svc, store := newTestService(t)
	userID := testUUID(0xAA)
	bookID := store.addBook(10, 250)

	_, err := svc.Add(context.Background(), userID, bookID, 2)
	require.NoError(t, err)
	view, err := svc.Add(context.Background(), userID, bookID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, int32(5), view.Items[0].Qty)
}

func TestAddRejectsInsufficientStock(t *testing.T) {
	svc, store := newTestService(t)
	userID := testUUID(0xAA)
	bookID := store.addBook(3, 250)

	_, err := svc.Add(context.Background(), userID, bookID, 5)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeOutOfStock, appErr.Code)

	// merged quantity over stock is also rejected
	_, err = svc.Add(context.Background(), userID, bookID, 2)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), userID, bookID, 2)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeOutOfStock, appErr.Code)
}

func TestUpdateQtyZeroRemovesLine(t *testing.T) {
	svc, store := newTestService(t)
	userID := testUUID(0xAA)
	bookID := store.addBook(10, 250)

	view, err := svc.Add(context.Background(), userID, bookID, 2)
	require.NoError(t, err)
	itemID, err := common.ParseUUID(view.Items[0].ID)
	require.NoError(t, err)

	view, err = svc.UpdateQty(context.Background(), userID, itemID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Items)
}

func TestViewCacheInvalidatedOnMutation(t *testing.T) {
	svc, store := newTestService(t)
	userID := testUUID(0xAA)
	bookID := store.addBook(10, 250)

	_, err := svc.Add(context.Background(), userID, bookID, 1)
	require.NoError(t, err)

	// warm the cache, then mutate and confirm the view reflects the change
	_, err = svc.Get(context.Background(), userID)
	require.NoError(t, err)

	view, err := svc.Add(context.Background(), userID, bookID, 1)
	require.NoError(t, err)
	require.Equal(t, int32(2), view.TotalItems)
}
