package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	books     []db.Book
	listCalls int
}

func (s *stubStore) ListBooks(_ context.Context, arg db.ListBooksParams) ([]db.Book, error) {
	s.listCalls++
	return s.books, nil
}

func (s *stubStore) CountBooks(_ context.Context, _ db.CountBooksParams) (int64, error) {
	return int64(len(s.books)), nil
}

func (s *stubStore) GetBookByID(_ context.Context, id pgtype.UUID) (db.Book, error) {
	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return db.Book{}, pgx.ErrNoRows
}

func (s *stubStore) CreateBook(_ context.Context, arg db.CreateBookParams) (db.Book, error) {
	b := db.Book{
		ID:    testUUID(byte(len(s.books) + 1)),
		Title: arg.Title, Author: arg.Author,
		Price: arg.Price, Stock: arg.Stock, StockThreshold: arg.StockThreshold,
	}
	s.books = append(s.books, b)
	return b, nil
}

func testUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestListCachesPages(t *testing.T) {
	store := &stubStore{books: []db.Book{
		{ID: testUUID(1), Title: "Godaan", Author: "Premchand", Price: 250, Stock: 5},
	}}
	svc := &Service{Q: store, Cache: newTestCache(t)}

	first, err := svc.List(context.Background(), ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, first.Books, 1)
	require.True(t, first.Books[0].InStock)

	_, err = svc.List(context.Background(), ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls, "second read should come from cache")
}

func TestCreateInvalidatesListCache(t *testing.T) {
	store := &stubStore{}
	svc := &Service{Q: store, Cache: newTestCache(t)}

	_, err := svc.List(context.Background(), ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), BookInput{Title: "Godaan", Author: "Premchand", Price: 250, Stock: 3})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), ListParams{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	require.Equal(t, 2, store.listCalls, "mutation should bypass the stale page")
}

func TestCreateValidates(t *testing.T) {
	svc := &Service{Q: &stubStore{}, Cache: newTestCache(t)}

	_, err := svc.Create(context.Background(), BookInput{Title: "", Author: "", Price: 0})
	require.Error(t, err)
}
