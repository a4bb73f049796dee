package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/prayas-foundation/prayas-api/internal/common"
	"github.com/prayas-foundation/prayas-api/internal/db"
)

type fakeProvider struct {
	gateway   string
	createErr error
	intents   []IntentRequest
	verify    WebhookResult
}

func (p *fakeProvider) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	if p.createErr != nil {
		return IntentResponse{}, p.createErr
	}
	p.intents = append(p.intents, req)
	return IntentResponse{
		Gateway:     p.gateway,
		GatewayRef:  p.gateway + "_ref_1",
		ClientToken: p.gateway + "_token_1",
	}, nil
}

func (p *fakeProvider) VerifyWebhook(_ *http.Request, _ []byte) (WebhookResult, error) {
	return p.verify, nil
}

type stubStore struct {
	db.Querier

	orders      map[pgtype.UUID]db.Order
	feePayments map[pgtype.UUID]db.FeePayment
	payments    map[pgtype.UUID]db.Payment
	users       map[pgtype.UUID]db.User
	events      []db.InsertDomainEventParams
	next        byte
}

func newStubStore() *stubStore {
	return &stubStore{
		orders:      map[pgtype.UUID]db.Order{},
		feePayments: map[pgtype.UUID]db.FeePayment{},
		payments:    map[pgtype.UUID]db.Payment{},
		users:       map[pgtype.UUID]db.User{},
		next:        1,
	}
}

func (s *stubStore) GetOrderByIDForUser(_ context.Context, arg db.GetOrderByIDForUserParams) (db.Order, error) {
	o, ok := s.orders[arg.ID]
	if !ok || o.UserID != arg.UserID {
		return db.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *stubStore) GetFeePaymentByID(_ context.Context, id pgtype.UUID) (db.FeePayment, error) {
	fp, ok := s.feePayments[id]
	if !ok {
		return db.FeePayment{}, pgx.ErrNoRows
	}
	return fp, nil
}

func (s *stubStore) CreatePayment(_ context.Context, arg db.CreatePaymentParams) (db.Payment, error) {
	id := testUUID(0xD0 + s.next)
	s.next++
	p := db.Payment{
		ID: id, OrderID: arg.OrderID, PaymentType: arg.PaymentType,
		Gateway: arg.Gateway, GatewayRef: arg.GatewayRef, IntentToken: arg.IntentToken,
		Amount: arg.Amount, Currency: arg.Currency, Status: arg.Status,
		ContextID: arg.ContextID,
	}
	s.payments[id] = p
	return p, nil
}

func (s *stubStore) InsertPaymentEvent(_ context.Context, _ db.InsertPaymentEventParams) error {
	return nil
}

func (s *stubStore) GetLatestPaymentByOrder(_ context.Context, orderID pgtype.UUID) (db.Payment, error) {
	for _, p := range s.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return db.Payment{}, pgx.ErrNoRows
}

func (s *stubStore) GetPaymentByGatewayRef(_ context.Context, ref pgtype.Text) (db.Payment, error) {
	for _, p := range s.payments {
		if p.GatewayRef.Valid && p.GatewayRef.String == ref.String {
			return p, nil
		}
	}
	return db.Payment{}, pgx.ErrNoRows
}

func (s *stubStore) UpdatePaymentStatus(_ context.Context, arg db.UpdatePaymentStatusParams) error {
	p := s.payments[arg.ID]
	p.Status = arg.Status
	s.payments[arg.ID] = p
	return nil
}

func (s *stubStore) UpdateOrderPaymentStatus(_ context.Context, arg db.UpdateOrderPaymentStatusParams) error {
	o := s.orders[arg.ID]
	o.PaymentStatus = arg.PaymentStatus
	s.orders[arg.ID] = o
	return nil
}

func (s *stubStore) UpdateFeePaymentStatus(_ context.Context, arg db.UpdateFeePaymentStatusParams) error {
	fp := s.feePayments[arg.ID]
	fp.Status = arg.Status
	s.feePayments[arg.ID] = fp
	return nil
}

func (s *stubStore) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	u, ok := s.users[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubStore) ExtendSubscription(_ context.Context, arg db.ExtendSubscriptionParams) error {
	u := s.users[arg.ID]
	u.SubscriptionExpiresAt = arg.ExpiresAt
	s.users[arg.ID] = u
	return nil
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) error {
	s.events = append(s.events, arg)
	return nil
}

func testUUID(last byte) pgtype.UUID {
	var id pgtype.UUID
	id.Bytes[15] = last
	id.Valid = true
	return id
}

func newTestService(store *stubStore, provider Provider) *Service {
	return &Service{
		Q:              store,
		Providers:      map[string]Provider{GatewayRazorpay: provider},
		DefaultGateway: GatewayRazorpay,
		Currency:       "INR",
	}
}

func TestCreateIntentForBookPurchase(t *testing.T) {
	store := newStubStore()
	userID := testUUID(0xAA)
	orderID := testUUID(1)
	store.orders[orderID] = db.Order{
		ID: orderID, UserID: userID, OrderNumber: "ORD-20260831-AB12CD",
		Status: db.OrderStatusPending, PaymentStatus: db.PaymentStatusPending,
		Currency: "INR", TotalAmount: 62000,
	}
	provider := &fakeProvider{gateway: GatewayRazorpay}
	svc := newTestService(store, provider)

	intent, err := svc.CreateIntent(context.Background(), userID, IntentInput{
		PaymentType: TypeBookPurchase,
		OrderID:     common.UUIDString(orderID),
	})
	require.NoError(t, err)
	require.Equal(t, int64(62000), intent.Amount, "amount comes from the order, not the request")
	require.Equal(t, GatewayRazorpay, intent.Gateway)
	require.Equal(t, "razorpay_ref_1", intent.GatewayRef)
	require.Equal(t, "pending", intent.Status)
	require.Len(t, provider.intents, 1)
	require.Equal(t, "ORD-20260831-AB12CD", provider.intents[0].Reference)
}

func TestCreateIntentRejectsAmountMismatch(t *testing.T) {
	store := newStubStore()
	userID := testUUID(0xAA)
	orderID := testUUID(1)
	store.orders[orderID] = db.Order{
		ID: orderID, UserID: userID,
		Status: db.OrderStatusPending, PaymentStatus: db.PaymentStatusPending,
		TotalAmount: 62000,
	}
	svc := newTestService(store, &fakeProvider{gateway: GatewayRazorpay})

	_, err := svc.CreateIntent(context.Background(), userID, IntentInput{
		PaymentType: TypeBookPurchase,
		OrderID:     common.UUIDString(orderID),
		Amount:      999,
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	require.Empty(t, store.payments)
}

func TestCreateIntentRejectsPaidOrder(t *testing.T) {
	store := newStubStore()
	userID := testUUID(0xAA)
	orderID := testUUID(1)
	store.orders[orderID] = db.Order{
		ID: orderID, UserID: userID,
		Status: db.OrderStatusConfirmed, PaymentStatus: db.PaymentStatusCompleted,
		TotalAmount: 62000,
	}
	svc := newTestService(store, &fakeProvider{gateway: GatewayRazorpay})

	_, err := svc.CreateIntent(context.Background(), userID, IntentInput{
		PaymentType: TypeBookPurchase,
		OrderID:     common.UUIDString(orderID),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeConflict, appErr.Code)
}

func TestCreateIntentSurfacesGatewayFailure(t *testing.T) {
	store := newStubStore()
	userID := testUUID(0xAA)
	orderID := testUUID(1)
	store.orders[orderID] = db.Order{
		ID: orderID, UserID: userID,
		Status: db.OrderStatusPending, PaymentStatus: db.PaymentStatusPending,
		TotalAmount: 62000,
	}
	svc := newTestService(store, &fakeProvider{gateway: GatewayRazorpay, createErr: errors.New("gateway 500")})

	_, err := svc.CreateIntent(context.Background(), userID, IntentInput{
		PaymentType: TypeBookPurchase,
		OrderID:     common.UUIDString(orderID),
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodePaymentSetup, appErr.Code)
	require.Empty(t, store.payments, "no payment row for a failed gateway call")
}

func TestCreateIntentForSchoolFee(t *testing.T) {
	store := newStubStore()
	feeID := testUUID(2)
	store.feePayments[feeID] = db.FeePayment{ID: feeID, SchoolID: 1, Amount: 358300, Status: db.PaymentStatusPending}
	svc := newTestService(store, &fakeProvider{gateway: GatewayRazorpay})

	intent, err := svc.CreateIntent(context.Background(), testUUID(0xAA), IntentInput{
		PaymentType:  TypeSchoolFee,
		FeePaymentID: common.UUIDString(feeID),
	})
	require.NoError(t, err)
	require.Equal(t, int64(358300), intent.Amount)
}

func TestCreateIntentValidatesTypeAndGateway(t *testing.T) {
	svc := newTestService(newStubStore(), &fakeProvider{gateway: GatewayRazorpay})

	_, err := svc.CreateIntent(context.Background(), testUUID(0xAA), IntentInput{PaymentType: "donation"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)

	_, err = svc.CreateIntent(context.Background(), testUUID(0xAA), IntentInput{
		PaymentType: TypeSubscription, Gateway: "paypal", Amount: 500,
	})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestStatusForOrderFallsBackToOrder(t *testing.T) {
	store := newStubStore()
	userID := testUUID(0xAA)
	orderID := testUUID(1)
	store.orders[orderID] = db.Order{ID: orderID, UserID: userID, PaymentStatus: db.PaymentStatusPending}
	svc := newTestService(store, &fakeProvider{gateway: GatewayRazorpay})

	status, err := svc.StatusForOrder(context.Background(), userID, orderID)
	require.NoError(t, err)
	require.Equal(t, "pending", status)

	_, err = svc.StatusForOrder(context.Background(), testUUID(0xBB), orderID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}
