package order

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

type stubStore struct {
	db.Querier

	orders map[pgtype.UUID]db.Order
	items  map[pgtype.UUID][]db.OrderItem
}

func newStubStore() *stubStore {
	return &stubStore{orders: map[pgtype.UUID]db.Order{}, items: map[pgtype.UUID][]db.OrderItem{}}
}

func (s *stubStore) addOrder(last byte, status db.OrderStatus) pgtype.UUID {
	id := testUUID(last)
	s.orders[id] = db.Order{
		ID: id, UserID: testUUID(0xAA), OrderNumber: "PRY-20260831-0001",
		Status: status, PaymentStatus: db.PaymentStatusPending,
		Currency: "INR", TotalAmount: 62000,
	}
	return id
}

func (s *stubStore) GetOrderByID(_ context.Context, id pgtype.UUID) (db.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return db.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *stubStore) GetOrderByIDForUser(_ context.Context, arg db.GetOrderByIDForUserParams) (db.Order, error) {
	o, ok := s.orders[arg.ID]
	if !ok || o.UserID != arg.UserID {
		return db.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *stubStore) ListOrderItemsByOrder(_ context.Context, orderID pgtype.UUID) ([]db.OrderItem, error) {
	return s.items[orderID], nil
}

func (s *stubStore) UpdateOrderStatus(_ context.Context, arg db.UpdateOrderStatusParams) error {
	o := s.orders[arg.ID]
	o.Status = arg.Status
	s.orders[arg.ID] = o
	return nil
}

func (s *stubStore) CancelOrder(_ context.Context, arg db.CancelOrderParams) error {
	o := s.orders[arg.ID]
	o.Status = db.OrderStatusCancelled
	o.CancelReason = pgtype.Text{String: arg.Reason, Valid: true}
	s.orders[arg.ID] = o
	return nil
}

func (s *stubStore) SetOrderTracking(_ context.Context, arg db.SetOrderTrackingParams) error {
	o := s.orders[arg.ID]
	o.TrackingNumber = arg.TrackingNumber
	s.orders[arg.ID] = o
	return nil
}

func testUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

func requireConflict(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeConflict, appErr.Code)
}

func TestUpdateStatusMovesForward(t *testing.T) {
	store := newStubStore()
	id := store.addOrder(1, db.OrderStatusPending)
	svc := &Service{Q: store}

	out, err := svc.UpdateStatus(context.Background(), id, db.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, "confirmed", out.Status)

	out, err = svc.UpdateStatus(context.Background(), id, db.OrderStatusShipped)
	require.NoError(t, err, "skipping intermediate states is allowed")
	require.Equal(t, "shipped", out.Status)
}

func TestUpdateStatusRejectsBackwardMove(t *testing.T) {
	store := newStubStore()
	id := store.addOrder(1, db.OrderStatusShipped)
	svc := &Service{Q: store}

	_, err := svc.UpdateStatus(context.Background(), id, db.OrderStatusProcessing)
	requireConflict(t, err)

	_, err = svc.UpdateStatus(context.Background(), id, db.OrderStatusShipped)
	requireConflict(t, err)
}

func TestUpdateStatusRejectsCancelledAndUnknown(t *testing.T) {
	store := newStubStore()
	id := store.addOrder(1, db.OrderStatusCancelled)
	svc := &Service{Q: store}

	_, err := svc.UpdateStatus(context.Background(), id, db.OrderStatusConfirmed)
	requireConflict(t, err)

	_, err = svc.UpdateStatus(context.Background(), id, db.OrderStatus("misplaced"))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestCancelBlocksTerminalStates(t *testing.T) {
	store := newStubStore()
	pending := store.addOrder(1, db.OrderStatusPending)
	shipped := store.addOrder(2, db.OrderStatusShipped)
	delivered := store.addOrder(3, db.OrderStatusDelivered)
	svc := &Service{Q: store}

	out, err := svc.Cancel(context.Background(), pending, "customer request")
	require.NoError(t, err)
	require.Equal(t, "cancelled", out.Status)
	require.NotNil(t, out.CancelReason)
	require.Equal(t, "customer request", *out.CancelReason)

	_, err = svc.Cancel(context.Background(), shipped, "lost in transit")
	require.NoError(t, err, "shipped is not terminal")

	_, err = svc.Cancel(context.Background(), delivered, "too late")
	requireConflict(t, err)

	_, err = svc.Cancel(context.Background(), pending, "twice")
	requireConflict(t, err)

	_, err = svc.Cancel(context.Background(), delivered, "  ")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestCancelForUserScopesToOwner(t *testing.T) {
	store := newStubStore()
	id := store.addOrder(1, db.OrderStatusPending)
	svc := &Service{Q: store}

	_, err := svc.CancelForUser(context.Background(), testUUID(0xBB), id, "not mine")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)

	out, err := svc.CancelForUser(context.Background(), testUUID(0xAA), id, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, "cancelled", out.Status)
}

func TestGetForUserScopesToOwner(t *testing.T) {
	store := newStubStore()
	id := store.addOrder(1, db.OrderStatusPending)
	store.items[id] = []db.OrderItem{{ID: testUUID(0x10), OrderID: id, Title: "Nirmala", Qty: 2, UnitPrice: 250, Subtotal: 500}}
	svc := &Service{Q: store}

	out, err := svc.GetForUser(context.Background(), testUUID(0xAA), id)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)

	_, err = svc.GetForUser(context.Background(), testUUID(0xBB), id)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestSetTrackingRejectsCancelledOrder(t *testing.T) {
	store := newStubStore()
	cancelled := store.addOrder(1, db.OrderStatusCancelled)
	shipped := store.addOrder(2, db.OrderStatusShipped)
	svc := &Service{Q: store}

	_, err := svc.SetTracking(context.Background(), cancelled, "IN123456789")
	requireConflict(t, err)

	out, err := svc.SetTracking(context.Background(), shipped, "IN123456789")
	require.NoError(t, err)
	require.NotNil(t, out.TrackingNumber)
	require.Equal(t, "IN123456789", *out.TrackingNumber)
}
