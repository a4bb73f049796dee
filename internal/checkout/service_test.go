package checkout

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
	"github.com/prayas-foundation/prayas-api/internal/events"
)

type stubStore struct {
	db.Querier

	books  map[pgtype.UUID]db.Book
	items  []db.CartItemDetail
	orders []db.Order
	lines  []db.CreateOrderItemParams
	events []db.InsertDomainEventParams
	next   byte
}

func newStubStore() *stubStore {
	return &stubStore{books: map[pgtype.UUID]db.Book{}, next: 1}
}

func (s *stubStore) addLine(stock int32, price int64, qty int32) pgtype.UUID {
	id := testUUID(s.next)
	s.next++
	s.books[id] = db.Book{ID: id, Title: "Nirmala", Author: "Premchand", Price: price, Stock: stock}
	s.items = append(s.items, db.CartItemDetail{
		ID: testUUID(0xC0 + s.next), BookID: id,
		Title: "Nirmala", Author: "Premchand", Price: price, Stock: stock, Qty: qty,
	})
	return id
}

func (s *stubStore) ListCartItemsForUser(_ context.Context, _ pgtype.UUID) ([]db.CartItemDetail, error) {
	return s.items, nil
}

func (s *stubStore) DecrementBookStock(_ context.Context, arg db.DecrementBookStockParams) (db.Book, error) {
	book, ok := s.books[arg.ID]
	if !ok || book.Stock < arg.Qty {
		return db.Book{}, pgx.ErrNoRows
	}
	book.Stock -= arg.Qty
	s.books[arg.ID] = book
	return book, nil
}

func (s *stubStore) CreateOrder(_ context.Context, arg db.CreateOrderParams) (db.Order, error) {
	order := db.Order{
		ID:              testUUID(0xA0 + byte(len(s.orders))),
		UserID:          arg.UserID,
		OrderNumber:     arg.OrderNumber,
		Status:          arg.Status,
		PaymentStatus:   arg.PaymentStatus,
		Currency:        arg.Currency,
		TotalAmount:     arg.TotalAmount,
		ShippingAddress: arg.ShippingAddress,
		BillingAddress:  arg.BillingAddress,
	}
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *stubStore) CreateOrderItem(_ context.Context, arg db.CreateOrderItemParams) error {
	s.lines = append(s.lines, arg)
	return nil
}

func (s *stubStore) ClearCart(_ context.Context, _ pgtype.UUID) error {
	s.items = nil
	return nil
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) error {
	s.events = append(s.events, arg)
	return nil
}

func (s *stubStore) snapshot() stubStore {
	cp := *s
	cp.books = make(map[pgtype.UUID]db.Book, len(s.books))
	for k, v := range s.books {
		cp.books[k] = v
	}
	return cp
}

func testUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

// rollbackRunner restores the store when fn fails, mirroring what a real
// transaction rollback would do.
func rollbackRunner(store *stubStore) TxRunner {
	return func(ctx context.Context, fn func(db.Querier) error) error {
		backup := store.snapshot()
		if err := fn(store); err != nil {
			*store = backup
			return err
		}
		return nil
	}
}

func newTestService(store *stubStore) *Service {
	return &Service{
		Q:        store,
		InTx:     rollbackRunner(store),
		Events:   &events.Bus{Q: store, Log: zerolog.Nop()},
		Currency: "INR",
	}
}

func validInput() Input {
	return Input{ShippingAddress: Address{
		Name: "Asha Verma", Phone: "9876543210",
		Line1: "12 Station Road", City: "Gorakhpur", PostalCode: "273001",
	}}
}

func TestCheckoutCreatesOrderWithSnapshots(t *testing.T) {
	store := newStubStore()
	store.addLine(10, 25000, 2)
	store.addLine(5, 12000, 1)
	svc := newTestService(store)

	out, err := svc.Create(context.Background(), testUUID(0xAA), validInput())
	require.NoError(t, err)
	require.Equal(t, int64(62000), out.TotalAmount)
	require.Equal(t, "pending", out.Status)
	require.Equal(t, "pending", out.PaymentStatus)
	require.Len(t, out.Items, 2)
	require.Equal(t, int64(25000), out.Items[0].UnitPrice)
	require.Len(t, store.lines, 2, "order lines are snapshotted")
	require.Empty(t, store.items, "cart is cleared in the same transaction")
	require.NotEmpty(t, out.OrderNumber)
}

func TestCheckoutDecrementsStock(t *testing.T) {
	store := newStubStore()
	bookID := store.addLine(10, 25000, 3)
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), testUUID(0xAA), validInput())
	require.NoError(t, err)
	require.Equal(t, int32(7), store.books[bookID].Stock)
}

func TestCheckoutRollsBackOnStockShortage(t *testing.T) {
	store := newStubStore()
	first := store.addLine(10, 25000, 2)
	store.addLine(1, 50000, 3) // short
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), testUUID(0xAA), validInput())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeOutOfStock, appErr.Code)
	require.Equal(t, int32(10), store.books[first].Stock, "earlier decrement is rolled back")
	require.Empty(t, store.orders)
	require.Len(t, store.items, 2, "cart survives a failed checkout")
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	svc := newTestService(newStubStore())

	_, err := svc.Create(context.Background(), testUUID(0xAA), validInput())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestCheckoutValidatesAddress(t *testing.T) {
	store := newStubStore()
	store.addLine(10, 25000, 1)
	svc := newTestService(store)

	in := validInput()
	in.ShippingAddress.PostalCode = ""
	_, err := svc.Create(context.Background(), testUUID(0xAA), in)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	require.Contains(t, appErr.Details, "postal_code")
}

func TestCheckoutEmitsOrderCreated(t *testing.T) {
	store := newStubStore()
	store.addLine(10, 25000, 1)
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), testUUID(0xAA), validInput())
	require.NoError(t, err)
	require.Len(t, store.events, 1)
	require.Equal(t, events.TopicOrderCreated, store.events[0].Topic)
}
